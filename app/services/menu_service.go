package services

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/grinfood/app/models"
	"github.com/shashiranjanraj/grinfood/app/repositories"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/cache"
	"github.com/shashiranjanraj/grinfood/pkg/logger"
	"github.com/shashiranjanraj/grinfood/pkg/rbac"
	"github.com/shashiranjanraj/grinfood/pkg/storage"
)

const (
	menuCacheKey = "menu:all"
	menuCacheTTL = 5 * time.Minute
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// MenuService is the catalog. The full listing is served from the cache
// and dropped from it on every write.
type MenuService struct {
	menu  *repositories.MenuRepository
	cache cache.Cache
	disk  storage.Disk
	now   func() time.Time
}

func NewMenuService(menu *repositories.MenuRepository, c cache.Cache, disk storage.Disk) *MenuService {
	return &MenuService{menu: menu, cache: c, disk: disk, now: time.Now}
}

func (s *MenuService) List(ctx context.Context) ([]models.MenuItem, error) {
	list, err := cache.Remember(ctx, s.cache, menuCacheKey, menuCacheTTL, s.menu.All)
	if err != nil {
		return nil, apperr.Collaborator("menu.list", err)
	}
	return list, nil
}

func (s *MenuService) Create(ctx context.Context, subject rbac.Subject, role rbac.Role, in models.MenuItemInput) (models.MenuItem, error) {
	if err := rbac.Authorize(subject, role, rbac.Manage, ""); err != nil {
		return models.MenuItem{}, err
	}
	if err := check(in); err != nil {
		return models.MenuItem{}, err
	}
	item := models.MenuItem{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Image:       in.Image,
		CreatedAt:   s.now().UTC(),
	}
	id, err := s.menu.Create(ctx, item)
	if err != nil {
		return models.MenuItem{}, apperr.Collaborator("menu.create", err)
	}
	item.ID = id
	s.invalidate(ctx)
	return item, nil
}

func (s *MenuService) Update(ctx context.Context, subject rbac.Subject, role rbac.Role, id string, in models.MenuItemInput) (models.MenuItem, error) {
	const op = "menu.update"
	if err := rbac.Authorize(subject, role, rbac.Manage, ""); err != nil {
		return models.MenuItem{}, err
	}
	if err := check(in); err != nil {
		return models.MenuItem{}, err
	}
	err := s.menu.Update(ctx, id, map[string]any{
		"name":        in.Name,
		"description": in.Description,
		"price":       in.Price,
		"category":    in.Category,
		"image":       in.Image,
		"updatedAt":   s.now().UTC(),
	})
	if err != nil {
		return models.MenuItem{}, storeErr(op, "Menu item", err)
	}
	s.invalidate(ctx)
	item, err := s.menu.Get(ctx, id)
	if err != nil {
		return models.MenuItem{}, storeErr(op, "Menu item", err)
	}
	return item, nil
}

func (s *MenuService) Delete(ctx context.Context, subject rbac.Subject, role rbac.Role, id string) error {
	const op = "menu.delete"
	if err := rbac.Authorize(subject, role, rbac.Manage, ""); err != nil {
		return err
	}
	if _, err := s.menu.Get(ctx, id); err != nil {
		return storeErr(op, "Menu item", err)
	}
	if err := s.menu.Delete(ctx, id); err != nil {
		return apperr.Collaborator(op, err)
	}
	s.invalidate(ctx)
	return nil
}

// UploadImage stores an image on the disk and points the item at it.
func (s *MenuService) UploadImage(ctx context.Context, subject rbac.Subject, role rbac.Role, id, contentType string, r io.Reader) (models.MenuItem, error) {
	const op = "menu.upload_image"
	if err := rbac.Authorize(subject, role, rbac.Manage, ""); err != nil {
		return models.MenuItem{}, err
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	ext, ok := imageExtensions[strings.TrimSpace(strings.ToLower(mediaType))]
	if !ok {
		return models.MenuItem{}, apperr.Field("image", "The image must be a jpeg, png, webp or gif file.")
	}
	if _, err := s.menu.Get(ctx, id); err != nil {
		return models.MenuItem{}, storeErr(op, "Menu item", err)
	}

	p := path.Join("menu", id, uuid.NewString()+ext)
	if err := s.disk.Put(ctx, p, r, mediaType); err != nil {
		return models.MenuItem{}, apperr.Collaborator(op, err)
	}
	url := s.disk.URL(p)
	if err := s.menu.Update(ctx, id, map[string]any{"image": url, "updatedAt": s.now().UTC()}); err != nil {
		return models.MenuItem{}, storeErr(op, "Menu item", err)
	}
	s.invalidate(ctx)
	logger.WithCtx(ctx).Info("menu image uploaded", "item", id, "path", p)
	item, err := s.menu.Get(ctx, id)
	if err != nil {
		return models.MenuItem{}, storeErr(op, "Menu item", err)
	}
	return item, nil
}

func (s *MenuService) invalidate(ctx context.Context) {
	if err := cache.Forget(ctx, s.cache, menuCacheKey); err != nil {
		logger.WithCtx(ctx).Warn("menu: cache invalidation failed", "error", err)
	}
}
