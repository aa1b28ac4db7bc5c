package entity

import (
	"encoding/json"
	"time"
)

// User is the durable identity record. Fields other than email and
// registeredAt are kept as-is so records written by other tools survive a
// load/save cycle.
type User struct {
	Email        string
	RegisteredAt time.Time
	Extra        map[string]json.RawMessage
}

func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+2)
	for k, v := range u.Extra {
		out[k] = v
	}
	out["email"] = u.Email
	out["registeredAt"] = u.RegisteredAt
	return json.Marshal(out)
}

func (u *User) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var user User
	if v, ok := raw["email"]; ok {
		if err := json.Unmarshal(v, &user.Email); err != nil {
			return err
		}
		delete(raw, "email")
	}
	if v, ok := raw["registeredAt"]; ok {
		if err := json.Unmarshal(v, &user.RegisteredAt); err != nil {
			return err
		}
		delete(raw, "registeredAt")
	}
	if len(raw) > 0 {
		user.Extra = raw
	}

	*u = user
	return nil
}
