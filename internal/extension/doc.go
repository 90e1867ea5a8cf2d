// Package extension loads the optional per-package hook file,
// workspace.hcl, that sits next to a package's package.json.
//
// A hook file may declare any number of post_install, pre_publish,
// post_uninstall and post_typescript_compile blocks, each with a shell
// command in `run` and an optional boolean `condition` expression, plus a
// single typescript_compiler block naming the tsconfig files to build:
//
//	post_install "assets" {
//	  condition = file_exists("assets")
//	  run       = "cp -r assets dist/"
//	}
//
//	typescript_compiler {
//	  config_files = ["tsconfig.build.json"]
//	}
//
// Conditions are evaluated per package with `package.name`,
// `package.version`, `package.path`, `package.dependencies` and
// `package.dev_dependencies` in scope.
package extension
