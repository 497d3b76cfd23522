package app

import (
	"io"

	"github.com/specialistvlad/portflow/internal/registry"
	"github.com/specialistvlad/portflow/modules/credentials"
	"github.com/specialistvlad/portflow/modules/flow"
	"github.com/specialistvlad/portflow/modules/http_request"
	prnt "github.com/specialistvlad/portflow/modules/print"
	"github.com/specialistvlad/portflow/modules/socketio"
	"github.com/specialistvlad/portflow/modules/transcode"
	"github.com/specialistvlad/portflow/modules/transfer"
)

// coreModules is the definitive list of all modules that are compiled into
// the portflow binary. The print module writes to outW.
func coreModules(outW io.Writer) []registry.Module {
	return []registry.Module{
		&flow.Module{},
		&prnt.Module{Out: outW},
		&credentials.Module{},
		&http_request.Module{},
		&transfer.Module{},
		&transcode.Module{},
		&socketio.Module{},
	}
}
