// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/authcore/internal/store"
)

var _ = Describe("Database", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("authcore_test"),
			postgres.WithUsername("authcore"),
			postgres.WithPassword("authcore"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if container != nil {
			Expect(container.Terminate(ctx)).To(Succeed())
		}
	})

	Describe("Open", func() {
		It("connects and reports healthy", func() {
			db, err := store.Open(ctx, store.Options{URL: connStr})
			Expect(err).NotTo(HaveOccurred())
			defer db.Close()

			Expect(db.Healthy()).To(BeTrue())
			Expect(db.CheckHealth(ctx)).To(Succeed())
		})
	})

	Describe("Migrator", func() {
		It("runs the full up, step, down and force cycle", func() {
			migrator, err := store.NewMigrator(connStr)
			Expect(err).NotTo(HaveOccurred())
			defer migrator.Close()

			version, dirty, err := migrator.Version()
			Expect(err).NotTo(HaveOccurred())
			Expect(version).To(BeZero())
			Expect(dirty).To(BeFalse())

			Expect(migrator.Up()).To(Succeed())
			latest, err := store.LatestVersion()
			Expect(err).NotTo(HaveOccurred())

			status, err := migrator.Status()
			Expect(err).NotTo(HaveOccurred())
			Expect(status.Version).To(Equal(latest))
			Expect(status.Pending).To(BeEmpty())

			Expect(migrator.Steps(-1)).To(Succeed())
			version, _, err = migrator.Version()
			Expect(err).NotTo(HaveOccurred())
			Expect(version).To(Equal(latest - 1))

			Expect(migrator.Steps(1)).To(Succeed())
			Expect(migrator.Down()).To(Succeed())
			version, _, err = migrator.Version()
			Expect(err).NotTo(HaveOccurred())
			Expect(version).To(BeZero())

			Expect(migrator.Up()).To(Succeed())
			Expect(migrator.Force(int(latest))).To(Succeed())
			version, dirty, err = migrator.Version()
			Expect(err).NotTo(HaveOccurred())
			Expect(version).To(Equal(latest))
			Expect(dirty).To(BeFalse())
		})

		It("enforces case-insensitive email uniqueness", func() {
			migrator, err := store.NewMigrator(connStr)
			Expect(err).NotTo(HaveOccurred())
			defer migrator.Close()
			Expect(migrator.Up()).To(Succeed())

			db, err := store.Open(ctx, store.Options{URL: connStr})
			Expect(err).NotTo(HaveOccurred())
			defer db.Close()

			_, err = db.Pool().Exec(ctx,
				`INSERT INTO accounts (id, email, password_hash) VALUES ('a', 'A@x.com', 'h')`)
			Expect(err).NotTo(HaveOccurred())
			_, err = db.Pool().Exec(ctx,
				`INSERT INTO accounts (id, email, password_hash) VALUES ('b', 'a@X.COM', 'h')`)
			Expect(err).To(HaveOccurred())
		})
	})
})
