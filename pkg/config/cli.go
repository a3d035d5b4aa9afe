package config

import "github.com/alecthomas/kong"

type Cli struct {
	Version kong.VersionFlag

	LogLevel   string `kong:"name=log-level,env=LOG_LEVEL,default=info,help='Set log level.'"`
	LogJSON    bool   `kong:"name=log-json,env=LOG_JSON,default=false,help='Enable JSON logging output.'"`
	LogCaller  bool   `kong:"name=log-caller,env=LOG_CALLER,default=false,help='Add file:line of the caller to log output.'"`
	LogNoColor bool   `kong:"name=log-nocolor,env=LOG_NOCOLOR,default=false,help='Disable colorized output.'"`

	Config   string   `kong:"name=config,type=existingfile,env=BUNDLEFS_CONFIG,help='Archives and mappings configuration file. (eg. ./bundlefs.yml)'"`
	Archive  string   `kong:"name=archive,type=path,env=BUNDLEFS_ARCHIVE,help='Archive to expose. (eg. ./bundle.zip)'"`
	Mappings []string `kong:"name=mapping,short=m,sep='none',help='Mapping header for the archive. (eg. /libs/foo;path:=/SLING-INF/libs/foo;propsJSON:=json)'"`

	Resolve   ResolveCmd   `kong:"cmd,help='Resolve a resource and print its properties.'"`
	Ls        LsCmd        `kong:"cmd,name=ls,help='List the children of a resource.'"`
	Cat       CatCmd       `kong:"cmd,help='Print the content of a file resource.'"`
	Export    ExportCmd    `kong:"cmd,help='Export a resource tree to a local folder.'"`
	Providers ProvidersCmd `kong:"cmd,help='List registered providers.'"`
}

type ResolveCmd struct {
	Path string `kong:"arg,required,name=path,help='Resource path. (eg. /libs/foo/test.txt)'"`
}

type LsCmd struct {
	Path string `kong:"arg,required,name=path,help='Resource path. (eg. /libs/foo)'"`
}

type CatCmd struct {
	Path string `kong:"arg,required,name=path,help='Resource path. (eg. /libs/foo/test.txt)'"`
}

type ExportCmd struct {
	Path   string `kong:"arg,required,name=path,help='Resource path. (eg. /libs/foo)'"`
	Dist   string `kong:"arg,required,name=dist,type=path,help='Dist folder. (eg. ./dist)'"`
	RmDist bool   `kong:"name=rm-dist,default=false,help='Removes dist folder.'"`
	Props  bool   `kong:"name=props,default=false,help='Write resource properties next to each exported entry.'"`
}

type ProvidersCmd struct{}
