package abi

//nolint:golint
import (
	_ "embed"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed portal.json
var portalJSONABI string

//go:embed l2_output_oracle.json
var l2OutputOracleJSONABI string

//go:embed l2_to_l1_message_passer.json
var l2ToL1MessagePasserJSONABI string

var (
	Portal              abi.ABI
	L2OutputOracle      abi.ABI
	L2ToL1MessagePasser abi.ABI
)

func init() {
	var err error
	Portal, err = abi.JSON(strings.NewReader(portalJSONABI))
	if err != nil {
		panic(err)
	}
	L2OutputOracle, err = abi.JSON(strings.NewReader(l2OutputOracleJSONABI))
	if err != nil {
		panic(err)
	}
	L2ToL1MessagePasser, err = abi.JSON(strings.NewReader(l2ToL1MessagePasserJSONABI))
	if err != nil {
		panic(err)
	}
}
