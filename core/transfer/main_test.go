package transfer_test

import (
	"testing"

	"github.com/trezcool/shule/core/org"
	"github.com/trezcool/shule/core/transfer"
	testutil "github.com/trezcool/shule/tests"
)

var (
	supervisor  = org.Actor{ID: "sup1", Role: org.RoleSupervisor}
	supervisor2 = org.Actor{ID: "sup2", Role: org.RoleSupervisor}
	admin       = org.Actor{ID: "adm1", Role: org.RoleAdmin}
	registrar   = org.Actor{ID: "reg1", Role: org.RoleRegistrar}
	receiver    = org.Actor{ID: "recv1", Role: org.RoleRegistrar}

	// acting users of the fixture coordinators
	coordPrimM = org.Actor{ID: "actor-prim-m", Role: org.RoleCoordinator}
	coordPrimA = org.Actor{ID: "actor-prim-a", Role: org.RoleCoordinator}
	coordSec   = org.Actor{ID: "actor-sec", Role: org.RoleCoordinator}
)

func setup(t *testing.T) (*testutil.Fixture, transfer.Service, *testutil.EventRecorder) {
	f := testutil.NewFixture(t)
	rec := new(testutil.EventRecorder)
	return f, f.NewTransferService(t, rec), rec
}
