package gralloc

import (
	"sort"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/gralloc/hal"
	"github.com/vkngwrapper/gralloc/memutils"
	"golang.org/x/exp/slog"
)

func printStatistics(json *jwriter.ObjectState, stats *memutils.DetailedStatistics) {
	json.Name("BufferCount").Int(stats.BufferCount)
	json.Name("BufferBytes").Int(stats.BufferBytes)
	json.Name("LockedCount").Int(stats.LockedCount)
	json.Name("MappedCount").Int(stats.MappedCount)

	if stats.BufferCount > 0 {
		json.Name("BufferSizeMin").Int(stats.BufferSizeMin)
		json.Name("BufferSizeMax").Int(stats.BufferSizeMax)
	}
}

func (bo *BufferObject) printParameters(json *jwriter.ObjectState) {
	locked, mapped, lockUsage := bo.lockState()

	json.Name("Width").Int(bo.Width())
	json.Name("Height").Int(bo.Height())
	json.Name("Format").String(bo.Format().String())
	json.Name("Usage").String(bo.Usage().String())
	json.Name("Pitch").Int(bo.Pitch())
	json.Name("Size").Int(bo.Size())
	json.Name("References").Int(bo.References())
	json.Name("Locked").Bool(locked)
	if locked {
		json.Name("LockUsage").String(lockUsage.String())
	}
	json.Name("Mapped").Bool(mapped)
	json.Name("Origin").String(bo.handle.Origin.String())
}

// BuildStatsString returns a JSON document describing the module's device and every buffer
// allocated through it and not yet freed
func (m *Module) BuildStatsString() string {
	m.logger.Debug("Module::BuildStatsString")

	entries := m.registry.Snapshot()

	byFormat := make(map[hal.PixelFormat]*memutils.DetailedStatistics)
	var formats []hal.PixelFormat
	for _, entry := range entries {
		formatStats, ok := byFormat[entry.bo.Format()]
		if !ok {
			formatStats = &memutils.DetailedStatistics{}
			formatStats.Clear()
			byFormat[entry.bo.Format()] = formatStats
			formats = append(formats, entry.bo.Format())
		}

		locked, mapped, _ := entry.bo.lockState()
		formatStats.AddBuffer(entry.bo.Size(), locked, mapped)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })

	var stats memutils.DetailedStatistics
	stats.Clear()
	for _, format := range formats {
		stats.AddDetailedStatistics(byFormat[format])
	}

	writer := jwriter.NewWriter()
	root := writer.Object()

	general := root.Name("General").Object()
	general.Name("Module").String(m.id.String())
	general.Name("Name").String(moduleInfo.Name)
	dev := m.device.Load()
	general.Name("Device").String(dev.State().String())
	if dev != nil {
		general.Name("Driver").String(dev.driver.Name())
	}
	general.End()

	total := root.Name("Total").Object()
	printStatistics(&total, &stats)
	total.End()

	formatsObj := root.Name("Formats").Object()
	for _, format := range formats {
		o := formatsObj.Name(format.String()).Object()
		printStatistics(&o, byFormat[format])
		o.End()
	}
	formatsObj.End()

	buffers := root.Name("Buffers").Array()
	for _, entry := range entries {
		o := buffers.Object()
		entry.bo.printParameters(&o)
		o.End()
	}
	buffers.End()

	root.End()

	if err := writer.Error(); err != nil {
		m.logger.Error("failed to build stats string", slog.Any("error", err))
	}

	return string(writer.Bytes())
}
