package bot

import (
	"fmt"
	"strconv"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const accessModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj)
`

// Access answers whether a Telegram account may drive the bot. The policy is
// a flat allow-list loaded from config at startup; there is no runtime
// mutation, so the enforcer runs without an adapter.
type Access struct {
	enforcer *casbin.Enforcer
}

func NewAccess(adminIDs []int64) (*Access, error) {
	m, err := model.NewModelFromString(accessModel)
	if err != nil {
		return nil, fmt.Errorf("build access model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("build enforcer: %w", err)
	}
	if _, err := e.AddPolicy("admin", "*"); err != nil {
		return nil, err
	}
	for _, id := range adminIDs {
		if _, err := e.AddGroupingPolicy(strconv.FormatInt(id, 10), "admin"); err != nil {
			return nil, err
		}
	}
	return &Access{enforcer: e}, nil
}

func (a *Access) IsAdmin(userID int64) bool {
	ok, err := a.enforcer.Enforce(strconv.FormatInt(userID, 10), "bot")
	return err == nil && ok
}
