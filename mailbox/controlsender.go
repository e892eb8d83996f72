package mailbox

// ControlSender is the narrow view of a Mailbox[M] a guardian needs: the
// ability to enqueue a SystemMessage onto a child's control lane, without
// knowing the child's regular-lane message type M. Every *Mailbox[M]
// satisfies this interface regardless of M, which is what lets a guardian
// hold a single map of heterogeneous children's control lanes.
type ControlSender interface {
	SendSystem(msg SystemMessage) error
}
