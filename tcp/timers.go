package tcp

import (
	"github.com/asu-gkg/htsim-go/kernel"
	"github.com/asu-gkg/htsim-go/viz"
)

// updateRTT applies the standard SRTT/RTTVAR/RTO estimator (RFC 6298) to a
// fresh RTT sample.
func (m *Manager) updateRTT(c *Connection, sample kernel.VirtualTime) {
	if sample <= 0 {
		return
	}
	if !c.haveRTT {
		c.SRTT = sample
		c.RTTVar = sample / 2
		c.haveRTT = true
	} else {
		delta := c.SRTT - sample
		if delta < 0 {
			delta = -delta
		}
		c.RTTVar = c.RTTVar - c.RTTVar/4 + delta/4
		c.SRTT = c.SRTT - c.SRTT/8 + sample/8
	}
	rto := c.SRTT + 4*c.RTTVar
	if rto < m.minRTO {
		rto = m.minRTO
	}
	if rto > m.maxRTO {
		rto = m.maxRTO
	}
	c.RTO = rto
}

// armRTO (re)schedules the retransmit timer for the oldest outstanding
// segment. The generation counter lets a stale timer recognize, when it
// fires, that the data it was guarding has since been acked or the timer
// was already replaced.
func (m *Manager) armRTO(c *Connection) {
	c.rtoGeneration++
	gen := c.rtoGeneration
	if len(c.RetransmitQueue) == 0 {
		return
	}
	id := c.ID
	m.k.Schedule(m.k.Now()+c.RTO, func(k *kernel.Kernel) {
		m.onRTOFire(id, gen)
	})
}

func (m *Manager) onRTOFire(id ConnID, gen uint64) {
	c, ok := m.conns[id]
	if !ok || gen != c.rtoGeneration || len(c.RetransmitQueue) == 0 {
		return // connection closed, superseded, or nothing left outstanding
	}
	c.Stats.RTOs++
	c.InRecovery = false
	c.DupAckCount = 0
	m.obs.Emit(viz.Event{TNs: int64(m.k.Now()), Kind: viz.KindTCPRTO, ConnID: uint64(c.ID), Seq: c.HighestAcked})
	m.emitCwnd(c, m.cc.OnRTOTimeout(c))

	oldest := c.RetransmitQueue[0]
	oldest.Retransmitted = true
	oldest.SentAt = m.k.Now()
	c.RetransmitQueue[0] = oldest
	m.transmitSegment(c, oldest, true)
	c.Stats.Retransmits++
	m.armRTO(c)
}
