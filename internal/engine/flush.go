package engine

import "github.com/MikhailWahib/flasheeprom/internal/flash"

// Flush erases the page and programs every half-word of the mirror that is
// not already in the erased state. It blocks until the driver finishes.
//
// An erase failure aborts the flush before anything is programmed; the
// mirror stays authoritative and flash is out of sync until a later flush
// succeeds. Program statuses are not checked.
func (e *Engine) Flush() error {
	status := e.driver.ErasePage(e.cfg.StartAddress)
	if status != flash.StatusComplete {
		err := &EraseError{Addr: e.cfg.StartAddress, Status: status}
		e.logger.Warn("flush aborted", "error", err)
		return err
	}

	programmed := 0
	for i, n := 0, e.mirror.HalfWords(); i < n; i++ {
		hw := e.mirror.HalfWord(i)
		if hw == flash.ErasedHalfWord {
			continue
		}
		_ = e.driver.ProgramHalfWord(e.cfg.StartAddress+uint32(2*i), hw)
		programmed++
	}

	e.logger.Debug("flushed page",
		"programmed", programmed,
		"skipped", e.mirror.HalfWords()-programmed)
	return nil
}
