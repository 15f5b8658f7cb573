package contract

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func indexedArgs(args abi.Arguments) abi.Arguments {
	res := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			res = append(res, arg)
		}
	}
	return res
}

// eventForTopics finds the event whose signature hash and indexed argument
// count match the given log topics.
func eventForTopics(contractABI abi.ABI, topics []common.Hash) *abi.Event {
	for name := range contractABI.Events {
		event := contractABI.Events[name]
		if event.ID != topics[0] {
			continue
		}
		if len(indexedArgs(event.Inputs)) == len(topics)-1 {
			return &event
		}
	}
	return nil
}

func unpackEvent(event *abi.Event, topics []common.Hash, data []byte) (map[string]interface{}, error) {
	indexed := indexedArgs(event.Inputs)
	values := make(map[string]interface{})
	if len(indexed) < len(event.Inputs) {
		if err := event.Inputs.UnpackIntoMap(values, data); err != nil {
			return nil, fmt.Errorf("can't unpack event data: %w", err)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, topics[1:]); err != nil {
		return nil, fmt.Errorf("can't unpack event topics: %w", err)
	}
	return values, nil
}

// ParseLog decodes a receipt log against the given ABI. A log whose first
// topic matches no event in the ABI yields an empty name and no error.
func ParseLog(contractABI abi.ABI, log *types.Log) (string, map[string]interface{}, error) {
	if len(log.Topics) == 0 {
		return "", nil, fmt.Errorf("can't process event without topics")
	}
	event := eventForTopics(contractABI, log.Topics)
	if event == nil {
		return "", nil, nil
	}
	values, err := unpackEvent(event, log.Topics, log.Data)
	if err != nil {
		return "", nil, fmt.Errorf("can't decode %s log: %w", event.Name, err)
	}
	return event.Name, values, nil
}
