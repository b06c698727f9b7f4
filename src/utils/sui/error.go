package sui

import (
	"errors"
	"fmt"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrBadResponse    = errors.New("bad response")
)

// Error returned in the JSON-RPC envelope
type RpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (self *RpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", self.Code, self.Message)
}

// Invalid request or params, retrying won't help
func (self *RpcError) IsPermanent() bool {
	return self.Code == -32600 || self.Code == -32601 || self.Code == -32602
}
