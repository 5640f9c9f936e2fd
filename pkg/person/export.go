package person

// Serializable (identity, position) pair of the tracking log
type Exported struct {
	Id       Id     `json:"id"`
	Position [2]int `json:"position"`
}

func (p *Identity) Export() (*Exported, bool) {
	last, ok := p.LastPosition()
	if !ok {
		return nil, false
	}
	return &Exported{Id: p.id, Position: [2]int{last.X, last.Y}}, true
}
