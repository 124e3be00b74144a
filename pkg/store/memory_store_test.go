package store

import (
	"testing"
	"time"

	"datadesk/pkg/domain"
)

func TestMemoryStoreDatasetInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	for _, name := range []string{"sales.csv", "costs.xlsx", "leads.xls"} {
		if err := s.AppendDataset(domain.Dataset{
			ID:        "ds-" + name,
			ProjectID: "p1",
			Name:      name,
		}); err != nil {
			t.Fatalf("append dataset %s: %v", name, err)
		}
	}
	got, err := s.ListDatasets("p1")
	if err != nil {
		t.Fatalf("list datasets: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 datasets, got %d", len(got))
	}
	want := []string{"sales.csv", "costs.xlsx", "leads.xls"}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, got[i].Name)
		}
	}

	empty, err := s.ListDatasets("other")
	if err != nil {
		t.Fatalf("list empty project: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty sequence, got %d", len(empty))
	}
}

func TestMemoryStoreMessagesAppendOnlyOrderPreserving(t *testing.T) {
	s := NewMemoryStore()
	if err := s.CreateChat(domain.Chat{ID: "c1", ProjectID: "p1", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("create chat: %v", err)
	}
	contents := []string{"first", "second", "third", "fourth"}
	for i, content := range contents {
		sender := domain.SenderHuman
		if i%2 == 1 {
			sender = domain.SenderAssistant
		}
		if err := s.AppendMessage("c1", domain.Message{
			ID:      content,
			ChatID:  "c1",
			Sender:  sender,
			Content: content,
		}); err != nil {
			t.Fatalf("append message %d: %v", i, err)
		}
	}
	msgs, err := s.ListMessages("c1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != len(contents) {
		t.Fatalf("expected %d messages, got %d", len(contents), len(msgs))
	}
	for i, content := range contents {
		if msgs[i].Content != content {
			t.Fatalf("position %d: expected %q, got %q", i, content, msgs[i].Content)
		}
	}
}

func TestMemoryStoreLatestPendingMessage(t *testing.T) {
	s := NewMemoryStore()
	if _, ok, _ := s.LatestPendingMessage("c1"); ok {
		t.Fatal("empty chat should have no pending message")
	}
	_ = s.AppendMessage("c1", domain.Message{ID: "m1", Sender: domain.SenderHuman, Pending: false})
	_ = s.AppendMessage("c1", domain.Message{ID: "m2", Sender: domain.SenderHuman, Pending: true})
	_ = s.AppendMessage("c1", domain.Message{ID: "m3", Sender: domain.SenderAssistant, Pending: false})

	msg, ok, err := s.LatestPendingMessage("c1")
	if err != nil {
		t.Fatalf("latest pending: %v", err)
	}
	if !ok || msg.ID != "m2" {
		t.Fatalf("expected pending m2, got %+v ok=%v", msg, ok)
	}

	if err := s.MarkMessageAnswered("m2"); err != nil {
		t.Fatalf("mark answered: %v", err)
	}
	if _, ok, _ := s.LatestPendingMessage("c1"); ok {
		t.Fatal("no message should remain pending after answer")
	}
}

func TestMemoryStoreTeamRoles(t *testing.T) {
	s := NewMemoryStore()
	if err := s.SaveTeam(domain.Team{ID: "t1", OrgID: "o1", Name: "data"}); err != nil {
		t.Fatalf("save team: %v", err)
	}
	if err := s.AddTeamMember("t1", domain.TeamMember{UserID: "u1", Role: domain.RoleTeamAdmin}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	role, ok, err := s.GetTeamRole("t1", "u1")
	if err != nil || !ok {
		t.Fatalf("get role: ok=%v err=%v", ok, err)
	}
	if role != domain.RoleTeamAdmin {
		t.Fatalf("expected team_admin, got %s", role)
	}

	// Role upgrades overwrite, membership removal clears.
	_ = s.AddTeamMember("t1", domain.TeamMember{UserID: "u1", Role: domain.RoleMember})
	role, _, _ = s.GetTeamRole("t1", "u1")
	if role != domain.RoleMember {
		t.Fatalf("expected member after downgrade, got %s", role)
	}
	if err := s.RemoveTeamMember("t1", "u1"); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if _, ok, _ := s.GetTeamRole("t1", "u1"); ok {
		t.Fatal("role should be gone after removal")
	}
}
