package world

type AuditEntry struct {
	TimeMs  int64          `json:"time_ms"`
	World   string         `json:"world,omitempty"`
	Run     string         `json:"run,omitempty"`
	Actor   string         `json:"actor"`
	Action  string         `json:"action"` // e.g. "SET_BLOCK"
	Pos     [3]int         `json:"pos"`
	From    uint16         `json:"from"`
	To      uint16         `json:"to"`
	Reason  string         `json:"reason,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type AuditSink interface {
	WriteAudit(AuditEntry) error
}

func (w *World) auditSetBlock(actor string, pos Vec3i, from, to string, reason string) {
	w.write(AuditEntry{
		TimeMs: w.nowMs,
		World:  w.cfg.ID,
		Run:    w.cfg.RunID,
		Actor:  actor,
		Action: "SET_BLOCK",
		Pos:    pos.ToArray(),
		From:   w.cats.Blocks.Index[from],
		To:     w.cats.Blocks.Index[to],
		Reason: reason,
	})
}

func (w *World) auditEvent(actor string, action string, pos Vec3i, reason string, details map[string]any) {
	w.write(AuditEntry{
		TimeMs:  w.nowMs,
		World:   w.cfg.ID,
		Run:     w.cfg.RunID,
		Actor:   actor,
		Action:  action,
		Pos:     pos.ToArray(),
		Reason:  reason,
		Details: details,
	})
}

func (w *World) write(e AuditEntry) {
	for _, s := range w.audit {
		if err := s.WriteAudit(e); err != nil {
			w.log.Warn().Err(err).Str("action", e.Action).Msg("audit write failed")
		}
	}
}
