package domain

// Group is a group conversation. Membership is owned by the REST layer and
// read-only here; it is used only to compute broadcast target sets.
type Group struct {
	ID        string   `bson:"_id,omitempty" json:"id"`
	Name      string   `bson:"name,omitempty" json:"name,omitempty"`
	Members   []string `bson:"members,omitempty" json:"members,omitempty"`
	Admins    []string `bson:"admins,omitempty" json:"admins,omitempty"`
	CreatedAt int64    `bson:"created_at,omitempty" json:"created_at,omitempty"`
}
