package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/keaz/contacts-backend/internal/logger"
	"github.com/keaz/contacts-backend/internal/types"
	"github.com/keaz/contacts-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "contacts", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: gormDB, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := s.db.AutoMigrate(
		&types.User{},
		&types.Contact{},
		&types.Tag{},
		&types.Group{},
	); err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	// Association rows must go away with their contact/tag/group so a
	// deleted contact disappears from every membership cache without
	// running the detach cascade (the row no longer exists to evaluate).
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		table, name, ddl string
	}{
		{"contact", "fk_contact_by_user", `ALTER TABLE "contact" ADD CONSTRAINT "fk_contact_by_user" FOREIGN KEY ("by_user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"tag", "fk_tag_by_user", `ALTER TABLE "tag" ADD CONSTRAINT "fk_tag_by_user" FOREIGN KEY ("by_user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"group", "fk_group_by_user", `ALTER TABLE "group" ADD CONSTRAINT "fk_group_by_user" FOREIGN KEY ("by_user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"contact_tag", "fk_contact_tag_contact", `ALTER TABLE "contact_tag" ADD CONSTRAINT "fk_contact_tag_contact" FOREIGN KEY ("contact_id") REFERENCES "contact"("id") ON DELETE CASCADE`},
		{"contact_tag", "fk_contact_tag_tag", `ALTER TABLE "contact_tag" ADD CONSTRAINT "fk_contact_tag_tag" FOREIGN KEY ("tag_id") REFERENCES "tag"("id") ON DELETE CASCADE`},
		{"group_tag", "fk_group_tag_group", `ALTER TABLE "group_tag" ADD CONSTRAINT "fk_group_tag_group" FOREIGN KEY ("group_id") REFERENCES "group"("id") ON DELETE CASCADE`},
		{"group_tag", "fk_group_tag_tag", `ALTER TABLE "group_tag" ADD CONSTRAINT "fk_group_tag_tag" FOREIGN KEY ("tag_id") REFERENCES "tag"("id") ON DELETE CASCADE`},
		{"group_contact", "fk_group_contact_group", `ALTER TABLE "group_contact" ADD CONSTRAINT "fk_group_contact_group" FOREIGN KEY ("group_id") REFERENCES "group"("id") ON DELETE CASCADE`},
		{"group_contact", "fk_group_contact_contact", `ALTER TABLE "group_contact" ADD CONSTRAINT "fk_group_contact_contact" FOREIGN KEY ("contact_id") REFERENCES "contact"("id") ON DELETE CASCADE`},
	}
	for _, c := range constraints {
		if s.db.Migrator().HasConstraint(c.table, c.name) {
			continue
		}
		if err := s.db.Exec(c.ddl).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
