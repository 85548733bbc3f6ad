package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/calendar-sharing/internal"
)

func TestStorage(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Storage Suite")
}

var _ = Describe("LocalStorage", func() {
	var (
		dir   string
		store *LocalStorage
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "uploads")
		Expect(err).NotTo(HaveOccurred())

		store, err = NewLocalStorage(internal.StorageConfig{
			UploadDir:     dir,
			PublicBaseURL: "/uploads/",
		}, slog.Default())
		Expect(err).NotTo(HaveOccurred())

		ctx = context.Background()
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("writes files and returns their public URL", func() {
		url, err := store.Save(ctx, "events/ev-1/photo.png", []byte("png-bytes"))
		Expect(err).NotTo(HaveOccurred())
		Expect(url).To(Equal("/uploads/events/ev-1/photo.png"))

		data, err := os.ReadFile(filepath.Join(dir, "events", "ev-1", "photo.png"))
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("png-bytes")))
	})

	It("rejects keys escaping the upload root", func() {
		_, err := store.Save(ctx, "../outside.txt", []byte("x"))
		Expect(err).To(HaveOccurred())

		_, err = store.Save(ctx, "/etc/passwd", []byte("x"))
		Expect(err).To(HaveOccurred())
	})

	It("deletes files and tolerates missing ones", func() {
		_, err := store.Save(ctx, "a.txt", []byte("x"))
		Expect(err).NotTo(HaveOccurred())

		Expect(store.Delete(ctx, "a.txt")).To(Succeed())
		_, err = os.Stat(filepath.Join(dir, "a.txt"))
		Expect(os.IsNotExist(err)).To(BeTrue())

		Expect(store.Delete(ctx, "a.txt")).To(Succeed())
	})
})
