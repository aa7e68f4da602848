package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	appErr "github.com/recipebook/api/pkg/errors"
)

// LocalStore writes images below a root directory and serves them back
// under a URL prefix.
type LocalStore struct {
	fs      billy.Filesystem
	baseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	return NewLocalStoreFS(osfs.New(root), baseURL)
}

// NewLocalStoreFS uses an existing filesystem, typically memfs in tests.
func NewLocalStoreFS(fs billy.Filesystem, baseURL string) *LocalStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStore{fs: fs, baseURL: baseURL}
}

func (s *LocalStore) Save(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "create media directory failed")
	}

	f, err := s.fs.OpenFile(key, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "create media file failed")
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(key)
		return appErr.Wrap(err, appErr.CodeInternal, "write media file failed")
	}
	if err := f.Close(); err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "close media file failed")
	}
	return nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return appErr.Wrap(err, appErr.CodeInternal, "remove media file failed")
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	return s.baseURL + strings.TrimPrefix(key, "/")
}

// ReadFile returns the stored bytes for key.
func (s *LocalStore) ReadFile(key string) ([]byte, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	b, err := util.ReadFile(s.fs, key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErr.New(appErr.CodeNotFound, "media not found")
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "read media file failed")
	}
	return b, nil
}

// ServeHTTP serves stored files read-only. The request path must already
// have the URL prefix stripped.
func (s *LocalStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	key, err := cleanKey(r.URL.Path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	info, err := s.fs.Stat(key)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	f, err := s.fs.Open(key)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, `\`, "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", appErr.New(appErr.CodeInvalid, "empty media key")
	}
	return k, nil
}
