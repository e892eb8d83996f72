// Package pid implements the addressing primitives of the actor runtime:
// ActorId, the hierarchical ActorPath, and the URI-style Pid used to name an
// actor globally within (and beyond) a single actor system instance.
package pid

import (
	"fmt"
	"strconv"
	"strings"
)

// ActorId is an opaque integer identifier, unique within one actor system
// instance. It carries no ordering semantics beyond equality.
type ActorId int

// String renders the ActorId in its path-segment form.
func (id ActorId) String() string {
	return strconv.Itoa(int(id))
}

// ActorPath is the ordered sequence of ActorIds from the root guardian down
// to a specific actor. The zero value is the root path.
type ActorPath struct {
	segments []ActorId
}

// RootPath returns the empty path addressing the root guardian.
func RootPath() ActorPath {
	return ActorPath{}
}

// PushChild returns a new path with id appended as the final segment. The
// receiver is left unmodified; ActorPath values are shared safely because
// this always allocates a fresh backing slice.
func (p ActorPath) PushChild(id ActorId) ActorPath {
	segments := make([]ActorId, len(p.segments)+1)
	copy(segments, p.segments)
	segments[len(p.segments)] = id

	return ActorPath{segments: segments}
}

// Parent returns the path to this actor's parent. The second return value is
// false when called on the root path, which has no parent.
func (p ActorPath) Parent() (ActorPath, bool) {
	if len(p.segments) == 0 {
		return ActorPath{}, false
	}

	return ActorPath{segments: p.segments[:len(p.segments)-1]}, true
}

// IsRoot reports whether this path addresses the root guardian.
func (p ActorPath) IsRoot() bool {
	return len(p.segments) == 0
}

// Segments returns a defensive copy of the path's ActorId segments.
func (p ActorPath) Segments() []ActorId {
	out := make([]ActorId, len(p.segments))
	copy(out, p.segments)

	return out
}

// Len returns the number of segments, i.e. the depth below the root.
func (p ActorPath) Len() int {
	return len(p.segments)
}

// Equal reports whether two paths address the same actor.
func (p ActorPath) Equal(other ActorPath) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i, seg := range p.segments {
		if seg != other.segments[i] {
			return false
		}
	}

	return true
}

// String renders the path as "/seg/seg/...", matching the path component of
// a Pid's URI form.
func (p ActorPath) String() string {
	var sb strings.Builder
	for _, seg := range p.segments {
		sb.WriteByte('/')
		sb.WriteString(seg.String())
	}

	return sb.String()
}

// PidParseError enumerates the ways a Pid URI can fail to parse.
type PidParseError struct {
	kind string
}

func (e *PidParseError) Error() string {
	return e.kind
}

// Sentinel parse errors, matching the external interface bit-exactly.
var (
	ErrMissingScheme      = &PidParseError{kind: "missing scheme"}
	ErrMissingSystem      = &PidParseError{kind: "missing system identifier"}
	ErrInvalidPort        = &PidParseError{kind: "invalid node port"}
	ErrInvalidPathSegment = &PidParseError{kind: "invalid path segment"}
)

// Pid is the globally unique, URI-style address of an actor:
//
//	scheme "://" system [ "@" host [ ":" port ] ] [ "/" seg ("/" seg)* ] [ "#" tag ]
//
// Display and Parse are inverses of one another for every well-formed Pid.
type Pid struct {
	Scheme string
	System string
	Host   string
	Port   uint16
	// HasNode records whether a node (host[:port]) segment was present,
	// distinguishing "no node" from "node with empty host".
	HasNode bool
	// HasPort records whether a port was explicitly supplied.
	HasPort bool
	Path    ActorPath
	Tag     string
	HasTag  bool
}

// New constructs a local Pid with the default "actor" scheme and no node or
// tag.
func New(system string, path ActorPath) Pid {
	return Pid{Scheme: "actor", System: system, Path: path}
}

// WithNode returns a copy of the Pid addressed at the given host and,
// optionally, port.
func (p Pid) WithNode(host string, port uint16, hasPort bool) Pid {
	p.Host = host
	p.Port = port
	p.HasPort = hasPort
	p.HasNode = true

	return p
}

// WithTag returns a copy of the Pid carrying the given incarnation tag.
func (p Pid) WithTag(tag string) Pid {
	p.Tag = tag
	p.HasTag = true

	return p
}

// WithScheme returns a copy of the Pid using the given scheme instead of the
// default "actor" scheme.
func (p Pid) WithScheme(scheme string) Pid {
	p.Scheme = scheme

	return p
}

// String renders the Pid in its canonical URI form. Parse(p.String())
// reconstructs an equal Pid for every well-formed p.
func (p Pid) String() string {
	var sb strings.Builder
	sb.WriteString(p.Scheme)
	sb.WriteString("://")
	sb.WriteString(p.System)

	if p.HasNode {
		sb.WriteByte('@')
		sb.WriteString(p.Host)
		if p.HasPort {
			sb.WriteByte(':')
			sb.WriteString(strconv.FormatUint(uint64(p.Port), 10))
		}
	}

	sb.WriteString(p.Path.String())

	if p.HasTag {
		sb.WriteByte('#')
		sb.WriteString(p.Tag)
	}

	return sb.String()
}

// Equal reports whether two Pids address the same actor.
func (p Pid) Equal(other Pid) bool {
	return p.Scheme == other.Scheme &&
		p.System == other.System &&
		p.HasNode == other.HasNode &&
		p.Host == other.Host &&
		p.HasPort == other.HasPort &&
		p.Port == other.Port &&
		p.Path.Equal(other.Path) &&
		p.HasTag == other.HasTag &&
		p.Tag == other.Tag
}

// Parse decodes a Pid from its canonical URI form. It is the exact inverse of
// String: Parse(p.String()) == p for every well-formed p.
func Parse(s string) (Pid, error) {
	scheme, remainder, ok := strings.Cut(s, "://")
	if !ok || scheme == "" {
		return Pid{}, ErrMissingScheme
	}

	beforeTag, tagPart, hasTag := strings.Cut(remainder, "#")
	if !hasTag {
		beforeTag = remainder
	}

	systemAndNode, pathStr, hasPath := strings.Cut(beforeTag, "/")
	if !hasPath {
		systemAndNode = beforeTag
	}

	if systemAndNode == "" {
		return Pid{}, ErrMissingSystem
	}

	systemStr, nodePart, hasNode := strings.Cut(systemAndNode, "@")
	if !hasNode {
		systemStr = systemAndNode
	}
	if systemStr == "" {
		return Pid{}, ErrMissingSystem
	}

	out := Pid{Scheme: scheme, System: systemStr}

	if hasNode && nodePart != "" {
		host, portStr, hasPort := strings.Cut(nodePart, ":")
		out.HasNode = true
		out.Host = host

		if hasPort {
			if portStr == "" {
				return Pid{}, ErrInvalidPort
			}
			port, err := strconv.ParseUint(portStr, 10, 16)
			if err != nil {
				return Pid{}, ErrInvalidPort
			}
			out.Port = uint16(port)
			out.HasPort = true
		}
	} else if hasNode {
		out.HasNode = true
	}

	path := RootPath()
	if hasPath {
		for _, segment := range strings.Split(pathStr, "/") {
			if segment == "" {
				continue
			}
			n, err := strconv.Atoi(segment)
			if err != nil || n < 0 {
				return Pid{}, ErrInvalidPathSegment
			}
			path = path.PushChild(ActorId(n))
		}
	}
	out.Path = path

	if hasTag && tagPart != "" {
		out.Tag = tagPart
		out.HasTag = true
	}

	return out, nil
}

// FailurePath is a convenience constructor that builds the single-segment
// path of a top-level child of the root guardian.
func FailurePath(id ActorId) ActorPath {
	return RootPath().PushChild(id)
}

// MustParse is like Parse but panics on error. It exists for use with
// compile-time-known literals in tests and examples.
func MustParse(s string) Pid {
	p, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("pid: MustParse(%q): %v", s, err))
	}

	return p
}
