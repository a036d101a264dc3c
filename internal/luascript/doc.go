// Package luascript loads user scripts written in Lua and registers them
// with a scripts.Registry.
//
// Scripts live in one folder per kind ("artboards", "projects",
// "simple brushes", "modifying brushes", "selecting brushes", "palettes",
// "exporters").
// Each file declares its flags as globals and defines an entry function
// named after the file:
//
//	isRenderEvent = true
//	isTransientEvent = false
//
//	function Checker(artboard, editor)
//	    return {
//	        _do = function() ... end,
//	        undo = function() ... end,
//	    }
//	end
//
// Artboard and project scripts return an event table with _do and the
// optional undo and shutDown. Brush scripts return a table with use and
// canUse, plus update and shutDown when stateful. Palette scripts return a
// table with generate. Exporter scripts define export(path, buffer, width,
// height, channels) instead of an entry function and return the file's
// bytes as a string.
//
// Every script runs in its own sandboxed state with only the base, table,
// string and math libraries. Host objects are reached through the
// arguments and the global sprite table.
package luascript
