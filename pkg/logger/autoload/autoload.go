// Package autoload initializes the global logger from the LOG_ env section
// as a side effect of being imported.
package autoload

import (
	configx "github.com/nravee/Roamly-Travel-Concierge/pkg/config"
	logx "github.com/nravee/Roamly-Travel-Concierge/pkg/logger"
)

func init() {
	logx.Init(*configx.MustLoad[logx.Config]("LOG"))
}
