package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/observability"
)

// MedicationInfoTool returns the user's registered medication list as a
// human-readable string.
type MedicationInfoTool struct {
	store domain.MedicationStore
}

func NewMedicationInfoTool(store domain.MedicationStore) *MedicationInfoTool {
	return &MedicationInfoTool{store: store}
}

func (t *MedicationInfoTool) Name() string { return "getMedicationInfo" }

func (t *MedicationInfoTool) Declaration() domain.ToolDeclaration {
	return domain.ToolDeclaration{
		Name:        t.Name(),
		Description: "ユーザーが現在服用している薬やサプリメントの名前を取得します。この関数を呼び出すと、現在ログインしているユーザーの薬のリストが返されます。",
		Parameters:  &domain.Schema{Type: "object", Properties: map[string]*domain.Schema{}},
	}
}

func (t *MedicationInfoTool) Call(ctx context.Context, userID domain.UserID, _ map[string]any) map[string]any {
	log := observability.LoggerFromContext(ctx)
	log.Info("getMedicationInfo called", "user_id", userID)

	meds, err := t.store.ListMedications(ctx, userID)
	if err != nil {
		log.Error("medication lookup failed", "error", err)
		return map[string]any{
			"error": fmt.Sprintf("An error occurred while executing the tool: %v", err),
		}
	}
	if len(meds) == 0 {
		return map[string]any{"info": "現在、登録されているお薬の情報はありません。"}
	}

	lines := make([]string, 0, len(meds))
	for _, m := range meds {
		dosage := m.Dosage
		if dosage == "" {
			dosage = "用法記載なし"
		}
		reminder := "リマインダー設定なし"
		if m.ReminderEnabled {
			reminder = "リマインダー設定あり"
		}
		lines = append(lines, fmt.Sprintf("%s（%s）を%sで服用中。", m.Name, dosage, reminder))
	}
	return map[string]any{"medications": strings.Join(lines, " ")}
}

// SupporterInfoTool returns the user's linked supporters.
type SupporterInfoTool struct {
	store domain.SupporterStore
}

func NewSupporterInfoTool(store domain.SupporterStore) *SupporterInfoTool {
	return &SupporterInfoTool{store: store}
}

func (t *SupporterInfoTool) Name() string { return "getSupporterInfo" }

func (t *SupporterInfoTool) Declaration() domain.ToolDeclaration {
	return domain.ToolDeclaration{
		Name:        t.Name(),
		Description: "ユーザーをサポートしている人（サポーター）に関する情報を取得します。この関数を呼び出すと、現在ログインしているユーザーのサポーターのリストが返されます。",
		Parameters:  &domain.Schema{Type: "object", Properties: map[string]*domain.Schema{}},
	}
}

func (t *SupporterInfoTool) Call(ctx context.Context, userID domain.UserID, _ map[string]any) map[string]any {
	log := observability.LoggerFromContext(ctx)
	log.Info("getSupporterInfo called", "user_id", userID)

	supporters, err := t.store.ListSupporters(ctx, userID)
	if err != nil {
		log.Error("supporter lookup failed", "error", err)
		return map[string]any{
			"error": fmt.Sprintf("An error occurred while executing the tool: %v", err),
		}
	}
	if len(supporters) == 0 {
		return map[string]any{"info": "現在、登録されているサポーターの情報はありません。"}
	}

	lines := make([]string, 0, len(supporters))
	for _, s := range supporters {
		relationship := s.Relationship
		if relationship == "" {
			relationship = "関係性未設定"
		}
		lines = append(lines, fmt.Sprintf("%sさん（%s）がサポーターです。", s.SupporterName, relationship))
	}
	return map[string]any{"supporters": strings.Join(lines, " ")}
}

// DrugSearchTool looks a drug name up on the public web.
type DrugSearchTool struct {
	searcher domain.WebSearcher
}

func NewDrugSearchTool(searcher domain.WebSearcher) *DrugSearchTool {
	return &DrugSearchTool{searcher: searcher}
}

func (t *DrugSearchTool) Name() string { return "searchDrugInfo" }

func (t *DrugSearchTool) Declaration() domain.ToolDeclaration {
	return domain.ToolDeclaration{
		Name:        t.Name(),
		Description: "特定の薬の名前（一般名または商品名）について、その効果、副作用、注意事項などの一般的な情報をウェブで検索して概要を返します。",
		Parameters: &domain.Schema{
			Type: "object",
			Properties: map[string]*domain.Schema{
				"drugName": {Type: "string", Description: "検索する薬の名前。"},
			},
			Required: []string{"drugName"},
		},
	}
}

func (t *DrugSearchTool) Call(ctx context.Context, userID domain.UserID, args map[string]any) map[string]any {
	log := observability.LoggerFromContext(ctx)

	drugName, _ := args["drugName"].(string)
	if strings.TrimSpace(drugName) == "" {
		return map[string]any{"error": "drugName is required."}
	}

	log.Info("searchDrugInfo called", "user_id", userID, "drug_name", drugName)

	summary, err := t.searcher.SearchDrugInfo(ctx, drugName)
	if err != nil {
		log.Error("drug web search failed", "drug_name", drugName, "error", err)
		return map[string]any{
			"error": fmt.Sprintf("「%s」についての情報をウェブで検索中にエラーが発生しました。", drugName),
		}
	}
	return map[string]any{"summary": summary}
}
