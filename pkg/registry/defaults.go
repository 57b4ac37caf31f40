package registry

import (
	"github.com/exeflow/exeflow/pkg/nodes/dbquery"
	"github.com/exeflow/exeflow/pkg/nodes/email"
	"github.com/exeflow/exeflow/pkg/nodes/httprequest"
)

// RegisterDefaultStrategies registers all built-in node strategy factories.
func (r *Registry) RegisterDefaultStrategies() {
	r.Register(httprequest.NewFactory())
	r.Register(dbquery.NewFactory())
	r.Register(email.NewFactory())
}
