package config

// StorageConfig describes the MinIO bucket holding uploaded photos.
type StorageConfig struct {
    Endpoint  string
    AccessKey string
    SecretKey string
    Bucket    string
    Secure    bool
}

func LoadStorageConfig() StorageConfig {
    v := newEnv()
    v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
    v.SetDefault("MINIO_BUCKET_NAME", "photos")
    v.SetDefault("MINIO_SECURE", false)
    return StorageConfig{
        Endpoint:  v.GetString("MINIO_ENDPOINT"),
        AccessKey: must(v, "MINIO_ACCESS_KEY"),
        SecretKey: must(v, "MINIO_SECRET_KEY"),
        Bucket:    v.GetString("MINIO_BUCKET_NAME"),
        Secure:    v.GetBool("MINIO_SECURE"),
    }
}
