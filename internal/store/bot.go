package store

// --- Bot settings (singleton) ---

func (s *Store) BotSettings() (*BotSettings, error) {
	return first[BotSettings](s.db)
}

type BotSettingsPatch struct {
	Token          *string   `json:"token"`
	Status         *string   `json:"status"`
	WelcomeMessage *string   `json:"welcomeMessage"`
	PaymentMethods *[]string `json:"paymentMethods"`
}

func (s *Store) UpdateBotSettings(p BotSettingsPatch) (*BotSettings, error) {
	settings, err := s.BotSettings()
	if err != nil || settings == nil {
		return nil, err
	}
	if p.Token != nil {
		settings.Token = *p.Token
	}
	if p.Status != nil {
		settings.Status = *p.Status
	}
	if p.WelcomeMessage != nil {
		settings.WelcomeMessage = *p.WelcomeMessage
	}
	if p.PaymentMethods != nil {
		settings.PaymentMethods = *p.PaymentMethods
	}
	if err := s.db.Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// --- Bot commands ---

func (s *Store) CreateBotCommand(c *BotCommand) error {
	return s.db.Create(c).Error
}

func (s *Store) BotCommandByID(id int64) (*BotCommand, error) {
	return first[BotCommand](s.db.Where("id = ?", id))
}

// BotCommandByLiteral looks a command up by its literal string, e.g. "/start".
func (s *Store) BotCommandByLiteral(command string) (*BotCommand, error) {
	return first[BotCommand](s.db.Where("command = ?", command))
}

type BotCommandPatch struct {
	Command         *string `json:"command"`
	Description     *string `json:"description"`
	Active          *bool   `json:"active"`
	ResponseMessage *string `json:"responseMessage"`
}

func (p BotCommandPatch) fields() map[string]interface{} {
	m := map[string]interface{}{}
	if p.Command != nil {
		m["command"] = *p.Command
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.Active != nil {
		m["active"] = *p.Active
	}
	if p.ResponseMessage != nil {
		m["response_message"] = *p.ResponseMessage
	}
	return m
}

func (s *Store) UpdateBotCommand(id int64, p BotCommandPatch) (*BotCommand, error) {
	fields := p.fields()
	if len(fields) == 0 {
		return s.BotCommandByID(id)
	}
	res := s.db.Model(&BotCommand{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return s.BotCommandByID(id)
}

func (s *Store) ListBotCommands(onlyActive bool) ([]BotCommand, error) {
	q := s.db.Order("id")
	if onlyActive {
		q = q.Where("active = ?", true)
	}
	var commands []BotCommand
	err := q.Find(&commands).Error
	return commands, err
}
