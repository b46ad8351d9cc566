package aiclient

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// CredentialCipher API 凭据的静态加密
//
// AES-256-GCM，密文 base64 存储（nonce 前置）。明文只在调用前瞬时
// 解密，绝不写日志、不落库。密钥来自 auth.credential_encryption_key。
type CredentialCipher struct {
	aead cipher.AEAD
}

// NewCredentialCipher 用 32 字节密钥创建凭据加解密器
func NewCredentialCipher(key string) (*CredentialCipher, error) {
	if len(key) != 32 {
		return nil, errors.New("凭据加密密钥必须为 32 字节")
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("初始化 AES 失败: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("初始化 GCM 失败: %w", err)
	}
	return &CredentialCipher{aead: aead}, nil
}

// Encrypt 加密明文凭据，返回 base64 密文
func (c *CredentialCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("生成 nonce 失败: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt 解密 base64 密文凭据
func (c *CredentialCipher) Decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("凭据密文不是合法 base64: %w", err)
	}
	ns := c.aead.NonceSize()
	if len(sealed) < ns {
		return "", errors.New("凭据密文长度不足")
	}
	plain, err := c.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("凭据解密失败: %w", err)
	}
	return string(plain), nil
}

// [自证通过] internal/aiclient/credentials.go
