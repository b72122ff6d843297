package managers

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/hackdesk/hackdesk/internal/config"
	"github.com/hackdesk/hackdesk/internal/core"
	"github.com/hackdesk/hackdesk/internal/db"
	"github.com/hackdesk/hackdesk/internal/models"
	"github.com/hackdesk/hackdesk/internal/pkg/storage"
)

type FileManager struct {
	files         *models.FileStore
	storage       storage.Storage
	UploadTimeout time.Duration
}

func NewFileManager(c *core.Core) (*FileManager, error) {
	cfg := config.Storage{
		Options: config.LocalStorageOptions{FilesDir: "files"},
	}
	if c.Config.Storage != nil {
		cfg = *c.Config.Storage
	}
	backend, err := storage.NewStorage(cfg)
	if err != nil {
		return nil, err
	}
	return &FileManager{
		files:         c.Files,
		storage:       backend,
		UploadTimeout: 10 * time.Minute,
	}, nil
}

type FileReader struct {
	Name   string
	Size   int64
	Reader io.Reader
}

func (f *FileReader) Close() error {
	if closer, ok := f.Reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func NewMultipartFileReader(file *multipart.FileHeader) (*FileReader, error) {
	f := FileReader{
		Name: file.Filename,
		Size: file.Size,
	}
	reader, err := file.Open()
	if err != nil {
		return nil, err
	}
	f.Reader = reader
	return &f, nil
}

// UploadFile adds file to file storage and starts upload.
//
// You should call ConfirmUploadFile for marking file available.
func (m *FileManager) UploadFile(ctx context.Context, fileReader *FileReader) (models.File, error) {
	defer func() { _ = fileReader.Close() }()
	if tx := db.GetTx(ctx); tx != nil {
		return models.File{}, fmt.Errorf("cannot upload file in transaction")
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(m.UploadTimeout)
	}
	filePath := generateFilePath()
	file := models.File{
		Status:     models.PendingFile,
		ExpireTime: models.NInt64(deadline.Add(time.Minute).Unix()),
		Path:       filePath,
	}
	meta := models.FileMeta{
		Name: fileReader.Name,
		Size: fileReader.Size,
	}
	if err := file.SetMeta(meta); err != nil {
		return models.File{}, err
	}
	if err := m.files.Create(ctx, &file); err != nil {
		return models.File{}, err
	}
	hasher := md5.New()
	reader := io.TeeReader(fileReader.Reader, hasher)
	if err := m.storage.WriteFile(ctx, filePath, reader); err != nil {
		return models.File{}, err
	}
	meta.MD5 = hex.EncodeToString(hasher.Sum(nil))
	if err := file.SetMeta(meta); err != nil {
		return models.File{}, err
	}
	return file, nil
}

func (m *FileManager) ConfirmUploadFile(ctx context.Context, file *models.File) error {
	if file.Status != models.PendingFile {
		return fmt.Errorf("file should be in pending status")
	}
	clone := *file
	clone.Status = models.AvailableFile
	clone.ExpireTime = 0
	if err := m.files.Update(ctx, clone); err != nil {
		return err
	}
	*file = clone
	return nil
}

// DeleteFile removes file object together with stored content.
func (m *FileManager) DeleteFile(ctx context.Context, id int64) error {
	file, err := m.files.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := m.files.Delete(ctx, file.ID); err != nil {
		return err
	}
	return m.storage.DeleteFile(ctx, file.Path)
}

func (m *FileManager) waitFileAvailable(ctx context.Context, file *models.File) error {
	if file.Status == models.AvailableFile {
		return nil
	}
	if file.Status != models.PendingFile {
		return fmt.Errorf("file has invalid status: %s", file.Status)
	}
	timer := time.NewTimer(time.Second)
	defer timer.Stop()
	expireTime := time.Unix(int64(file.ExpireTime), 0)
	for file.Status == models.PendingFile && time.Now().Before(expireTime) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		syncedFile, err := m.files.Get(ctx, file.ID)
		if err != nil {
			return err
		}
		*file = syncedFile
	}
	if file.Status != models.AvailableFile {
		return fmt.Errorf("file has invalid status: %s", file.Status)
	}
	return nil
}

func (m *FileManager) DownloadFile(ctx context.Context, id int64) (io.ReadCloser, error) {
	file, err := m.files.Get(ctx, id)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if err := m.waitFileAvailable(ctx, &file); err != nil {
		return nil, err
	}
	return m.storage.ReadFile(ctx, file.Path)
}

func generateFilePath() string {
	id := uuid.New().String()
	return path.Join(id[:2], id[2:4], id)
}
