package extension

import "github.com/hashicorp/hcl/v2"

// FileName is the hook file looked up in every package directory.
const FileName = "workspace.hcl"

// Kind names a pipeline boundary a hook can attach to.
type Kind string

const (
	PostInstall   Kind = "post_install"
	PrePublish    Kind = "pre_publish"
	PostUninstall Kind = "post_uninstall"
	PostCompile   Kind = "post_typescript_compile"
)

// fileRoot is the decoding target for a whole hook file.
type fileRoot struct {
	PostInstall   []*hookBlock   `hcl:"post_install,block"`
	PrePublish    []*hookBlock   `hcl:"pre_publish,block"`
	PostUninstall []*hookBlock   `hcl:"post_uninstall,block"`
	PostCompile   []*hookBlock   `hcl:"post_typescript_compile,block"`
	Compiler      *compilerBlock `hcl:"typescript_compiler,block"`
}

type hookBlock struct {
	Name      string         `hcl:"name,label"`
	Condition hcl.Expression `hcl:"condition,optional"`
	Run       string         `hcl:"run"`
}

type compilerBlock struct {
	ConfigFiles []string `hcl:"config_files,optional"`
}
