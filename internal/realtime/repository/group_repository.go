package repository

import (
	"context"

	"community_social_service/internal/realtime/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GroupRepository read-only membership lookup. The REST layer owns the
// group documents; fan-out only needs the member set.
type GroupRepository interface {
	FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error)
}

type groupRepository struct {
	coll *mongo.Collection
}

// NewMongoGroupRepository create a GroupRepository
func NewMongoGroupRepository(db *mongo.Database) GroupRepository {
	return &groupRepository{
		coll: db.Collection("groups"),
	}
}

func (r *groupRepository) FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error) {
	filter := bson.M{"_id": groupID}
	var group domain.Group
	err := r.coll.FindOne(ctx, filter).Decode(&group)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}
