package sovdevlogger

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Internal is the synthetic peer-service name callers use when the
// peer is the service itself. It always resolves to the service's own
// name, regardless of what mapping was passed to Initialize.
const Internal = "INTERNAL"

// PeerServices is an immutable mapping from friendly peer names to
// stable system identifiers (CMDB ids), created with
// [CreatePeerServices] and passed to [Initialize].
//
// Callers write the friendly name (a key of the mapping, or [Internal])
// at call sites; operators control which system identifier that name
// resolves to on the wire.
type PeerServices struct {
	definitions map[string]string
}

// CreatePeerServices returns a PeerServices wrapping definitions.
// definitions is copied; later mutation of the caller's map has no
// effect on the returned value.
func CreatePeerServices(definitions map[string]string) *PeerServices {
	copied := make(map[string]string, len(definitions))
	for k, v := range definitions {
		copied[k] = v
	}
	return &PeerServices{definitions: copied}
}

// Mappings returns a defensive copy of the raw name-to-system-id
// mapping passed to CreatePeerServices. Internal is never a key of
// this map — it is added separately by Initialize.
func (p *PeerServices) Mappings() map[string]string {
	if p == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(p.definitions))
	for k, v := range p.definitions {
		out[k] = v
	}
	return out
}

// String renders the set of known constant names, Internal included,
// for debugging and example output.
func (p *PeerServices) String() string {
	names := make([]string, 0, len(p.definitions)+1)
	if p != nil {
		for k := range p.definitions {
			names = append(names, k)
		}
	}
	names = append(names, Internal)
	sort.Strings(names)
	return fmt.Sprintf("PeerServices(%s)", strings.Join(names, ", "))
}

// peerRegistry is the resolved, per-session form of PeerServices: the
// raw mapping plus the synthetic Internal entry bound to the
// initializing service's own name. It is immutable after
// construction and safe for concurrent reads.
type peerRegistry struct {
	mapping        map[string]string
	ownServiceName string
}

// newPeerRegistry merges peers with the synthetic Internal -> ownServiceName
// entry. peers may be nil.
func newPeerRegistry(peers *PeerServices, ownServiceName string) *peerRegistry {
	mapping := peers.Mappings()
	mapping[Internal] = ownServiceName
	return &peerRegistry{mapping: mapping, ownServiceName: ownServiceName}
}

// resolve implements the four-way lookup: empty name is treated as
// Internal, Internal resolves to the owning service's name, known
// names resolve through the mapping, and unknown names pass through
// unchanged after a one-line warning.
func (r *peerRegistry) resolve(name string) string {
	if name == "" {
		name = Internal
	}
	if name == Internal {
		return r.ownServiceName
	}
	if id, ok := r.mapping[name]; ok {
		return id
	}

	keys := make([]string, 0, len(r.mapping))
	for k := range r.mapping {
		if k == Internal {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(os.Stderr, "Warning: Unknown peer service: %s. Available: %s or INTERNAL\n", name, strings.Join(keys, ", "))
	return name
}
