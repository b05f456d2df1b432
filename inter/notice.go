package inter

import (
	"strconv"

	"github.com/google/uuid"
)

// referenceSpace namespaces deterministic notice references.
var referenceSpace = uuid.MustParse("6ba7b812-9dad-11d1-80b4-00c04fd430c8")

// Notice is an outbound message emitted while handling an inbound one.
type Notice struct {
	Target string `json:"Target"`
	Tags   Tags   `json:"Tags"`
	Data   string `json:"Data"`
}

// Action returns the value of the notice's Action tag.
func (n Notice) Action() string {
	return n.Tags.Value("Action")
}

// Reference derives a stable identifier for the i-th notice of message msgID.
func Reference(msgID string, i int) string {
	return uuid.NewSHA1(referenceSpace, []byte(msgID+"/"+strconv.Itoa(i))).String()
}
