package session

import (
	"context"
	"log"
	"time"

	"twikitmcp/internal/config"
	"twikitmcp/internal/crypto"
)

// NewStore picks Redis when REDIS_HOST is configured and falls back to the
// file store at cfg.SessionPath otherwise or when Redis is unreachable.
func NewStore(cfg *config.Config) (Store, error) {
	var sealer *crypto.Sealer
	if cfg.SessionKey != "" {
		s, err := crypto.NewSealer(cfg.SessionKey)
		if err != nil {
			return nil, err
		}
		sealer = s
		log.Println("🔒 Session records are sealed at rest")
	}

	if cfg.Redis.Host != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		store, err := NewRedisStore(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Username, cfg.Redis.Password, sealer)
		if err != nil {
			log.Printf("⚠️  Redis connection failed: %v", err)
			fileStore := NewFileStore(cfg.SessionPath, sealer)
			log.Printf("💾 Falling back to session file %s", fileStore.Path())
			return fileStore, nil
		}
		log.Printf("💾 Using Redis session store: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		return store, nil
	}

	fileStore := NewFileStore(cfg.SessionPath, sealer)
	log.Printf("💾 Using session file %s", fileStore.Path())
	return fileStore, nil
}
