package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/minics/console/internal/core/domain"
)

const roleCollection = "sys_roles"

type RoleRepository struct {
	coll *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{coll: db.Collection(roleCollection)}
}

// The role code is the document id.
type mongoRole struct {
	Code        string   `bson:"_id"`
	Name        string   `bson:"name"`
	Description string   `bson:"description,omitempty"`
	Menus       []string `bson:"menus"`
	Actions     []string `bson:"actions"`
	BuiltIn     bool     `bson:"built_in"`
	CreatedAt   int64    `bson:"created_at"`
	UpdatedAt   int64    `bson:"updated_at"`
}

func toMongoRole(role *domain.Role) mongoRole {
	return mongoRole{
		Code:        role.Code,
		Name:        role.Name,
		Description: role.Description,
		Menus:       role.Permissions.Menus(),
		Actions:     role.Permissions.Actions(),
		BuiltIn:     role.BuiltIn,
		CreatedAt:   role.CreatedAt.Unix(),
		UpdatedAt:   role.UpdatedAt.Unix(),
	}
}

func (mr *mongoRole) toDomain() *domain.Role {
	return &domain.Role{
		Code:        mr.Code,
		Name:        mr.Name,
		Description: mr.Description,
		Permissions: domain.NewPermissions(mr.Menus, mr.Actions),
		BuiltIn:     mr.BuiltIn,
		CreatedAt:   unixToTime(mr.CreatedAt),
		UpdatedAt:   unixToTime(mr.UpdatedAt),
	}
}

func (r *RoleRepository) FindByCode(ctx context.Context, code string) (*domain.Role, error) {
	var mr mongoRole
	if err := r.coll.FindOne(ctx, bson.M{"_id": code}).Decode(&mr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return mr.toDomain(), nil
}

func (r *RoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoRole
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}

	roles := make([]*domain.Role, 0, len(docs))
	for i := range docs {
		roles = append(roles, docs[i].toDomain())
	}
	return roles, nil
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	if _, err := r.coll.InsertOne(ctx, toMongoRole(role)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrRoleExists
		}
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) error {
	doc := toMongoRole(role)
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": role.Code}, bson.M{
		"$set": bson.M{
			"name":        doc.Name,
			"description": doc.Description,
			"menus":       doc.Menus,
			"actions":     doc.Actions,
			"updated_at":  doc.UpdatedAt,
		},
	})
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

func (r *RoleRepository) Delete(ctx context.Context, code string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": code})
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// Seed inserts the given roles unless a role with the same code exists.
func (r *RoleRepository) Seed(ctx context.Context, roles []*domain.Role) error {
	for _, role := range roles {
		doc := toMongoRole(role)
		_, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": role.Code},
			bson.M{"$setOnInsert": bson.M{
				"name":        doc.Name,
				"description": doc.Description,
				"menus":       doc.Menus,
				"actions":     doc.Actions,
				"built_in":    doc.BuiltIn,
				"created_at":  doc.CreatedAt,
				"updated_at":  doc.UpdatedAt,
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", role.Code, err)
		}
	}
	return nil
}
