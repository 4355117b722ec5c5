package user

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		db  *BoltDB
		err error
	)

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		db, err = NewBoltDB(filepath.Join(dir, "test.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	newUser := func(id, email string) *User {
		now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
		return &User{
			ID:           id,
			FullName:     "Jamie Doe",
			Age:          30,
			Email:        email,
			CellNumber:   "5551234567",
			Status:       StatusActive,
			PasswordHash: "hash",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	Describe("SaveUser and GetUserByEmail", func() {
		It("round-trips a user", func() {
			u := newUser("id-1", "jamie@example.com")
			Expect(db.SaveUser(u)).To(Succeed())

			got, err := db.GetUserByEmail("jamie@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(u))
		})

		It("overwrites on re-save", func() {
			u := newUser("id-1", "jamie@example.com")
			Expect(db.SaveUser(u)).To(Succeed())

			u.FullName = "Jamie Q. Doe"
			Expect(db.SaveUser(u)).To(Succeed())

			got, err := db.GetUserByEmail("jamie@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.FullName).To(Equal("Jamie Q. Doe"))
		})

		It("returns ErrNotFound for an unknown email", func() {
			_, err := db.GetUserByEmail("nobody@example.com")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("GetUserByID", func() {
		It("finds a saved user through the id index", func() {
			u := newUser("id-1", "jamie@example.com")
			Expect(db.SaveUser(u)).To(Succeed())

			got, err := db.GetUserByID("id-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Email).To(Equal("jamie@example.com"))
		})

		It("returns ErrNotFound for an unknown id", func() {
			_, err := db.GetUserByID("missing")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("ListUsers", func() {
		It("returns every saved user", func() {
			Expect(db.SaveUser(newUser("id-1", "a@example.com"))).To(Succeed())
			Expect(db.SaveUser(newUser("id-2", "b@example.com"))).To(Succeed())

			users, err := db.ListUsers()
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
		})

		It("returns an empty slice for an empty database", func() {
			users, err := db.ListUsers()
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(BeEmpty())
		})
	})

	Describe("DeleteUser", func() {
		It("removes the user and its id index entry", func() {
			Expect(db.SaveUser(newUser("id-1", "jamie@example.com"))).To(Succeed())
			Expect(db.DeleteUser("id-1")).To(Succeed())

			_, err := db.GetUserByEmail("jamie@example.com")
			Expect(err).To(MatchError(ErrNotFound))
			_, err = db.GetUserByID("id-1")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("returns ErrNotFound for an unknown id", func() {
			Expect(db.DeleteUser("missing")).To(MatchError(ErrNotFound))
		})
	})
})
