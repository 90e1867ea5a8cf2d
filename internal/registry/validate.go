package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/workgrid/internal/ctxlog"
)

// ValidateSections checks that every stage section in the config file names
// a registered stage.
func (r *Registry) ValidateSections(ctx context.Context, sections map[string]map[string]any) error {
	logger := ctxlog.FromContext(ctx)

	var errs []string
	for name := range sections {
		if !r.Has(name) {
			errs = append(errs, fmt.Sprintf("config declares settings for stage '%s' which is not registered", name))
		}
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Registry validation passed.", "stages", r.Names())
	return nil
}
