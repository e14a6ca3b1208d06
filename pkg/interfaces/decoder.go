package interfaces

import "github.com/m-mizutani/chronicle/pkg/model"

// MessageDecoder turns a raw message record into a Message. It returns
// (nil, nil) when the record carries nothing to surface.
type MessageDecoder interface {
	Decode(rec *model.RawRecord) (*model.Message, error)
}
