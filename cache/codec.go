package cache

import "github.com/vmihailenco/msgpack/v5"

// Marshal serializes a value for storage in a CacheService.
func Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal decodes a payload produced by Marshal.
func Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
