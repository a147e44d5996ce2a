package root

import (
	"github.com/zenGate-Global/wedding-admin/apps/cli/cmd/auth"
	"github.com/zenGate-Global/wedding-admin/apps/cli/cmd/capacity"
	"github.com/zenGate-Global/wedding-admin/apps/cli/cmd/migrate"
	"github.com/zenGate-Global/wedding-admin/apps/cli/cmd/slug"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(migrate.Command())
	Root().AddCommand(slug.Command())
	Root().AddCommand(capacity.Command())
}
