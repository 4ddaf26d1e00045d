package rpc

import (
	"encoding/json"
	"time"
)

// Envelope is the wire shape every RPC call carries, per §6:
// {usr_id, time, route, message}. message is the route-specific payload,
// deferred as raw JSON until the route is known.
type Envelope struct {
	UsrID   uint32          `json:"usr_id"`
	Time    time.Time       `json:"time"`
	Route   string          `json:"route"`
	Message json.RawMessage `json:"message"`
}

// NewEnvelope marshals payload into an Envelope addressed at route on behalf
// of usrID, stamped with t.
func NewEnvelope(usrID uint32, t time.Time, route string, payload any) (Envelope, error) {
	bz, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{UsrID: usrID, Time: t, Route: route, Message: bz}, nil
}

// Decode unmarshals the envelope's message into out.
func (e Envelope) Decode(out any) error {
	return json.Unmarshal(e.Message, out)
}
