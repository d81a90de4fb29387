// internal/app/features/shared/banner.go
package shared

import (
	"context"

	"github.com/dalemusser/clubbera/internal/app/system/objectstore"
	"github.com/dalemusser/clubbera/internal/domain/models"
	"go.uber.org/zap"
)

// UploadBanner decodes a base64 image and stores it under prefix. It returns
// objectstore.ErrNoImageData when data is empty or not base64.
func UploadBanner(ctx context.Context, store objectstore.Store, prefix, data, fileName string) (models.ImageRef, error) {
	body, ctype, err := objectstore.DecodeBase64Image(data)
	if err != nil {
		return models.ImageRef{}, err
	}
	obj, err := store.Put(ctx, objectstore.BannerKey(prefix, fileName), body, ctype)
	if err != nil {
		return models.ImageRef{}, err
	}
	return models.ImageRef{Provider: objectstore.Provider, Key: obj.Key, Location: obj.Location}, nil
}

// DiscardBanner deletes a replaced banner. Failures are logged only.
func DiscardBanner(ctx context.Context, store objectstore.Store, old *models.ImageRef, log *zap.Logger) {
	if old == nil || old.Key == "" || old.Provider != objectstore.Provider {
		return
	}
	if err := store.Delete(ctx, old.Key); err != nil {
		log.Warn("old banner not deleted", zap.String("key", old.Key), zap.Error(err))
	}
}
