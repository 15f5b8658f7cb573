package rollup

import "errors"

var (
	ErrNoSigner            = errors.New("chain client has no transaction signer configured")
	ErrNoWithdrawalMessage = errors.New("receipt contains no MessagePassed event")
	ErrNoDepositMessage    = errors.New("receipt contains no TransactionDeposited event")
)
