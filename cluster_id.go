package chargemap

import (
	"encoding/binary"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ClusterID identifies an aggregate node. It is derived from the set of
// entity ids the cluster contains and the zoom at which it was formed, so
// rebuilding from the same entities yields the same ids.
type ClusterID uint64

func (id ClusterID) String() string {
	return strconv.FormatUint(uint64(id), 16)
}

// ParseClusterID parses the hexadecimal form produced by String.
func ParseClusterID(s string) (ClusterID, bool) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}
	return ClusterID(v), true
}

// memberHash is the contribution of one entity id to a set digest. Set
// digests are sums of member hashes, which makes them independent of the
// order members were merged in.
func memberHash(entityID string) uint64 {
	return xxhash.Sum64String(entityID)
}

// clusterID mixes a set digest with the formation zoom.
func clusterID(digest uint64, zoom int) ClusterID {
	var buf [10]byte
	binary.LittleEndian.PutUint64(buf[:8], digest)
	binary.LittleEndian.PutUint16(buf[8:], uint16(zoom))
	id := xxhash.Sum64(buf[:])
	if id == 0 {
		// Zero is reserved for "no cluster".
		id = 1
	}
	return ClusterID(id)
}
