package billstore

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		root    string
		storage *LocalStorage
	)

	BeforeEach(func() {
		root = filepath.Join(GinkgoT().TempDir(), "bills")
		var err error
		storage, err = NewLocalStorage(root)
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates its directory", func() {
		Expect(root).To(BeADirectory())
	})

	When("a receipt is saved", func() {
		const key = "0b1c_note-de-frais.png"

		BeforeEach(func() {
			saved, err := storage.Save(key, pngData)
			Expect(err).NotTo(HaveOccurred())
			Expect(saved).To(Equal(key))
		})

		It("writes it under the storage key", func() {
			Expect(filepath.Join(root, key)).To(BeAnExistingFile())
		})

		It("reads the same bytes back", func() {
			data, err := storage.Get(key)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(pngData))
		})

		It("can be deleted once", func() {
			Expect(storage.Delete(key)).To(Succeed())
			Expect(filepath.Join(root, key)).NotTo(BeAnExistingFile())
			Expect(storage.Delete(key)).To(MatchError(ContainSubstring("deleting file")))
		})
	})

	It("fails to read a missing receipt", func() {
		_, err := storage.Get("missing.png")
		Expect(err).To(MatchError(ContainSubstring("reading file")))
	})

	DescribeTable("rejects keys outside the storage directory",
		func(key string) {
			_, err := storage.Save(key, pngData)
			Expect(err).To(MatchError(ContainSubstring("invalid file path")))
		},
		Entry("parent directory", "../escape.png"),
		Entry("nested path", "nested/receipt.png"),
		Entry("empty key", ""),
	)
})
