package sui

import (
	"encoding/json"
)

const (
	DataTypeMoveObject = "moveObject"
	DataTypePackage    = "package"
)

type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	Id      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RpcError       `json:"error"`
}

type ObjectDataOptions struct {
	ShowType    bool `json:"showType"`
	ShowContent bool `json:"showContent"`
	ShowOwner   bool `json:"showOwner"`
}

type ObjectResponse struct {
	Data  *ObjectData          `json:"data"`
	Error *ObjectResponseError `json:"error"`
}

type ObjectResponseError struct {
	Code     string `json:"code"`
	ObjectId string `json:"object_id"`
}

type ObjectData struct {
	ObjectId string         `json:"objectId"`
	Version  string         `json:"version"`
	Digest   string         `json:"digest"`
	Type     string         `json:"type"`
	Owner    *ObjectOwner   `json:"owner"`
	Content  *ObjectContent `json:"content"`
}

// Owner is either a plain string ("Immutable") or an object keyed by the ownership kind
type ObjectOwner struct {
	Kind                 string
	InitialSharedVersion json.Number
}

func (self *ObjectOwner) UnmarshalJSON(data []byte) (err error) {
	var kind string
	if json.Unmarshal(data, &kind) == nil {
		self.Kind = kind
		return nil
	}

	var owner map[string]json.RawMessage
	err = json.Unmarshal(data, &owner)
	if err != nil {
		return
	}

	for kind, value := range owner {
		self.Kind = kind
		if kind == "Shared" {
			var shared struct {
				InitialSharedVersion json.Number `json:"initial_shared_version"`
			}
			err = json.Unmarshal(value, &shared)
			if err != nil {
				return
			}
			self.InitialSharedVersion = shared.InitialSharedVersion
		}
	}
	return nil
}

func (self *ObjectOwner) IsShared() bool {
	return self != nil && self.Kind == "Shared"
}

// Parsed Move struct. Fields are left raw, their layout depends on the Move type
type ObjectContent struct {
	DataType          string          `json:"dataType"`
	Type              string          `json:"type"`
	HasPublicTransfer bool            `json:"hasPublicTransfer"`
	Fields            json.RawMessage `json:"fields"`
}
