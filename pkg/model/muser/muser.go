//nolint:revive // exported
package muser

import "github.com/echoline/echoline/pkg/idwrap"

type User struct {
	ID        idwrap.IDWrap
	Email     string
	Name      string
	Image     *string
	CreatedAt int64
}
