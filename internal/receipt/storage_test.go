package receipt

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		dir     string
		storage *LocalStorage
		err     error
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		storage, err = NewLocalStorage(dir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		It("writes the file under the base path", func() {
			name, err := storage.Save("receipt.jpg", []byte("image-bytes"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("receipt.jpg"))
			Expect(filepath.Join(dir, "receipt.jpg")).To(BeAnExistingFile())
		})
	})

	Describe("Get", func() {
		It("reads back saved data", func() {
			_, err := storage.Save("receipt.jpg", []byte("image-bytes"))
			Expect(err).NotTo(HaveOccurred())

			data, err := storage.Get("receipt.jpg")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("image-bytes")))
		})

		It("errors on a missing file", func() {
			_, err := storage.Get("missing.jpg")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("removes the file", func() {
			_, err := storage.Save("receipt.jpg", []byte("image-bytes"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete("receipt.jpg")).To(Succeed())
			Expect(filepath.Join(dir, "receipt.jpg")).NotTo(BeAnExistingFile())
		})

		It("errors on a missing file", func() {
			Expect(storage.Delete("missing.jpg")).To(HaveOccurred())
		})
	})
})
