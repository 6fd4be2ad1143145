package mspdi

import (
	"strconv"

	"github.com/google/uuid"
)

// guidSource derives stable entity GUIDs so the same project always encodes
// to the same bytes.
type guidSource struct {
	ns uuid.UUID
}

func newGUIDSource(projectName string) guidSource {
	return guidSource{ns: uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:upf:project:"+projectName))}
}

func (g guidSource) For(kind string, uid int) string {
	return uuid.NewSHA1(g.ns, []byte(kind+"/"+strconv.Itoa(uid))).String()
}
