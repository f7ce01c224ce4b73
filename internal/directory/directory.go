package directory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/senyabanana/procurement-service/internal/models"

	"github.com/spf13/viper"
)

// Directory - локальный справочник участников, загружаемый один раз при старте
// из файлов профилей (.env.admin, .env.vendor1 и т.д.). Только для чтения,
// поиск по адресу регистронезависимый.
type Directory struct {
	byAddress map[string]models.Participant
}

// New строит справочник из готового списка участников.
func New(participants []models.Participant) *Directory {
	d := &Directory{byAddress: make(map[string]models.Participant, len(participants))}
	for _, p := range participants {
		d.byAddress[strings.ToLower(p.Address)] = p
	}
	return d
}

// Load читает все файлы профилей из каталога и строит справочник.
// Файлы без адреса или роли пропускаются.
func Load(dir string) (*Directory, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read profiles dir %s: %w", dir, err)
	}

	d := &Directory{byAddress: make(map[string]models.Participant)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(strings.ToLower(entry.Name()), "env") {
			continue
		}
		p, err := parseProfile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if p.Address == "" || p.Role == "" {
			continue
		}
		d.byAddress[strings.ToLower(p.Address)] = p
	}
	return d, nil
}

// parseProfile читает один профиль в env-формате.
func parseProfile(path string) (models.Participant, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return models.Participant{}, fmt.Errorf("cannot parse profile %s: %w", path, err)
	}

	role, ok := parseRole(v.GetString("ROLE"))
	if !ok {
		return models.Participant{}, nil
	}
	addr := v.GetString("ADDRESS")
	name := v.GetString("NAME")
	if name == "" && addr != "" {
		name = ShortAddress(addr)
	}
	return models.Participant{
		Address: strings.ToLower(addr),
		Name:    name,
		Role:    role,
	}, nil
}

func parseRole(raw string) (models.ParticipantRole, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "requester":
		return models.RequesterRole, true
	case "vendor":
		return models.VendorRole, true
	case "approver", "admin":
		return models.ApproverRole, true
	}
	return "", false
}

// Resolve возвращает участника по адресу.
func (d *Directory) Resolve(address string) (models.Participant, bool) {
	p, ok := d.byAddress[strings.ToLower(address)]
	return p, ok
}

// DisplayName возвращает имя участника либо укороченный адрес.
// Нерезолвящийся адрес не является ошибкой.
func (d *Directory) DisplayName(address string) string {
	if p, ok := d.Resolve(address); ok {
		return p.Name
	}
	return ShortAddress(address)
}

// ByRole возвращает участников с заданной ролью, отсортированных по адресу.
func (d *Directory) ByRole(role models.ParticipantRole) []models.Participant {
	var out []models.Participant
	for _, p := range d.byAddress {
		if p.Role == role {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// All возвращает всех участников справочника.
func (d *Directory) All() []models.Participant {
	out := make([]models.Participant, 0, len(d.byAddress))
	for _, p := range d.byAddress {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// ShortAddress укорачивает адрес для отображения.
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:10] + "..."
}
