package mailbox

import (
	"github.com/arcrun/actorcore/pid"
	"github.com/arcrun/actorcore/supervision"
)

func testFailureInfo() supervision.FailureInfo {
	return supervision.NewFailureInfo(
		pid.ActorId(1),
		pid.RootPath().PushChild(1),
		supervision.NewActorFailure(errBoom{}),
	)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
