//go:build governance

package pipeline_test

import (
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/vitrine-labs/vitrine"

// layerRule forbids every import edge from one subtree into another.
type layerRule struct {
	from   string
	to     string
	reason string
}

// TestGovernance_Layering verifies the one-way dependency flow:
// cmd wires the CLI, the CLI and the web UI drive the pipeline, and the
// pipeline drives the services. Edges pointing the other way rot into
// cycles, so they fail here before they compile anywhere else.
func TestGovernance_Layering(t *testing.T) {
	rules := []layerRule{
		{"internal/pipeline", "internal/ui", "the driver must not know about its frontends"},
		{"internal/pipeline", "internal/cli", "the driver must not know about its frontends"},
		{"internal/ui", "internal/cli", "the web UI must start without the cobra layer"},
		{"internal/warehouse", "internal/pipeline", "services must not call back into orchestration"},
		{"internal/state", "internal/pipeline", "services must not call back into orchestration"},
		{"internal/dbt", "internal/pipeline", "services must not call back into orchestration"},
		{"internal/ui/views", "internal/warehouse", "views render models, they never touch the warehouse"},
	}

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("failed to load packages: %v", err)
	}

	for _, p := range pkgs {
		rel := strings.TrimPrefix(p.PkgPath, modulePath+"/")
		for imp := range p.Imports {
			if !strings.HasPrefix(imp, modulePath+"/") {
				continue
			}
			impRel := strings.TrimPrefix(imp, modulePath+"/")

			for _, rule := range rules {
				if underTree(rel, rule.from) && underTree(impRel, rule.to) {
					t.Errorf("LAYERING VIOLATION: %s imports %s.\n   %s.", rel, impRel, rule.reason)
				}
			}
		}
	}
}

// TestGovernance_CLIIsolation verifies only the binary entrypoint pulls in
// the cobra command tree. Everything else must be reachable without it.
func TestGovernance_CLIIsolation(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("failed to load packages: %v", err)
	}

	for _, p := range pkgs {
		rel := strings.TrimPrefix(p.PkgPath, modulePath+"/")
		if rel == "cmd/vitrine" || underTree(rel, "internal/cli") {
			continue
		}

		for imp := range p.Imports {
			if strings.HasPrefix(imp, modulePath+"/internal/cli") {
				t.Errorf("ISOLATION VIOLATION: %s imports %s.\n   Only cmd/vitrine wires the CLI.", rel, imp)
			}
		}
	}
}

func underTree(pkg, tree string) bool {
	return pkg == tree || strings.HasPrefix(pkg, tree+"/")
}
