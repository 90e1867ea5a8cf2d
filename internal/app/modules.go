package app

import (
	"github.com/specialistvlad/workgrid/internal/registry"
	"github.com/specialistvlad/workgrid/modules/compile"
	"github.com/specialistvlad/workgrid/modules/cucumber"
	"github.com/specialistvlad/workgrid/modules/filter"
	"github.com/specialistvlad/workgrid/modules/install"
	"github.com/specialistvlad/workgrid/modules/list"
	"github.com/specialistvlad/workgrid/modules/publish"
	"github.com/specialistvlad/workgrid/modules/script"
	"github.com/specialistvlad/workgrid/modules/uninstall"
)

// coreModules is the definitive list of all stages that are compiled into
// the workgrid binary.
var coreModules = []registry.Module{
	&list.Module{},
	&install.Module{},
	&uninstall.Module{},
	&compile.Module{},
	&cucumber.Module{},
	&publish.Module{},
	&script.Module{},
	&filter.Module{},
}
