// Package templates renders the pages served by the api
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Kiosk is the full screen slideshow page. It mirrors the slot state pushed over the
// websocket at wsPath and reports back whether each image loaded.
func Kiosk(title, wsPath string, slots int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, kioskHead, templ.EscapeString(title)); err != nil {
			return err
		}
		for i := range slots {
			if _, err := fmt.Fprintf(w, kioskSlot, i); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, kioskControls); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, kioskScript, templ.EscapeString(wsPath)); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

const kioskHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
html, body { margin: 0; width: 100%%; height: 100%%; overflow: hidden; background: #000; cursor: none; }
.slot { position: absolute; inset: 0; display: flex; align-items: center; justify-content: center; opacity: 0; transition: opacity 1.5s; }
.slot.selected { opacity: 1; }
.slot img { display: block; }
.caption { position: absolute; color: #fff; font-family: sans-serif; text-shadow: 0 0 4px #000; }
.author { left: 2vw; bottom: 2vh; font-size: 2.5vh; }
.location { right: 2vw; bottom: 2vh; font-size: 2.5vh; }
.time { left: 2vw; top: 2vh; font-size: 4vh; }
.indicator { position: absolute; right: 2vw; top: 2vh; width: 5vh; height: 5vh; color: #fff; font-size: 5vh; display: none; }
#noPhotos { position: absolute; inset: 0; display: none; align-items: center; justify-content: center; color: #fff; font-family: sans-serif; font-size: 4vh; }
</style>
</head>
<body>
`

const kioskSlot = `<div class="slot" data-slot="%d">
<img alt="">
<div class="caption author"></div>
<div class="caption location"></div>
<div class="caption time"></div>
</div>
`

const kioskControls = `<div id="pauseImage" class="indicator">&#10074;&#10074;</div>
<div id="playImage" class="indicator">&#9654;</div>
<div id="noPhotos"></div>
`

const kioskScript = `<script>
(function () {
  const wsPath = "%s";
  const slots = Array.from(document.querySelectorAll(".slot"));
  const state = {};
  let sock;

  function slotEl(i) { return slots.find(s => Number(s.dataset.slot) === i); }

  function send(type, slot, url) {
    if (sock && sock.readyState === WebSocket.OPEN) {
      sock.send(JSON.stringify({type: type, slot: slot, value: url, timestamp: new Date().toISOString()}));
    }
  }

  slots.forEach(s => {
    const i = Number(s.dataset.slot);
    const img = s.querySelector("img");
    img.addEventListener("load", () => send("image.loaded", i, img.getAttribute("src")));
    img.addEventListener("error", () => send("image.error", i, img.getAttribute("src")));
  });

  function applyLayout(img, l) {
    img.style.objectFit = l.fit;
    img.style.width = l.width ? l.width + "px" : "100%%";
    img.style.height = l.height ? l.height + "px" : "100%%";
    img.style.border = l.border ? l.border + "px solid #fff" : "none";
    img.style.padding = l.padding ? l.padding + "px" : "0";
  }

  function applySlot(i, field, value) {
    const s = slotEl(i);
    if (!s) return;
    const img = s.querySelector("img");
    switch (field) {
    case "url": if (img.getAttribute("src") !== value) img.setAttribute("src", value); break;
    case "authorLabel": s.querySelector(".author").textContent = value; break;
    case "locationLabel": s.querySelector(".location").textContent = value; break;
    case "layout": applyLayout(img, value); break;
    default:
      if (field.endsWith(".style")) {
        const el = s.querySelector("." + field.slice(0, -6));
        if (el) { el.style.fontSize = value.fontSize; el.style.fontWeight = value.fontWeight; }
      }
    }
  }

  function flash(el, visible) {
    el.style.display = visible ? "block" : "none";
    if (visible) setTimeout(() => { el.style.display = "none"; }, 1500);
  }

  function applyState(field, value) {
    state[field] = value;
    switch (field) {
    case "background": document.body.style.background = value; break;
    case "selected": slots.forEach(s => s.classList.toggle("selected", Number(s.dataset.slot) === value)); break;
    case "timeLabel": document.querySelectorAll(".time").forEach(e => e.textContent = value); break;
    case "pauseImageVisible": flash(document.getElementById("pauseImage"), value); break;
    case "playImageVisible": document.getElementById("playImage").style.display = value ? "block" : "none"; break;
    case "noPhotos": document.getElementById("noPhotos").style.display = value ? "flex" : "none"; break;
    case "noPhotosLabel": document.getElementById("noPhotos").textContent = value; break;
    case "aniType": slots.forEach(s => s.dataset.ani = value); break;
    }
  }

  function connect() {
    const proto = location.protocol === "https:" ? "wss://" : "ws://";
    sock = new WebSocket(proto + location.host + wsPath);
    sock.onmessage = ev => {
      const msg = JSON.parse(ev.data);
      if (msg.type === "slot.field") applySlot(msg.slot, msg.field, msg.value);
      else if (msg.type === "state.field") applyState(msg.field, msg.value);
    };
    sock.onclose = () => setTimeout(connect, 2000);
  }
  connect();
})();
</script>
`
