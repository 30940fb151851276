package web

const pageCSS = `
:root { --border: #d9d9d9; --primary: #389e0d; --muted: #8c8c8c; }
body { font-family: system-ui, sans-serif; margin: 0; color: #262626; background: #fafafa; }
header { padding: 0.75rem 1.5rem; background: #fff; border-bottom: 1px solid var(--border); }
header .brand { font-weight: 600; color: var(--primary); text-decoration: none; }
main { max-width: 960px; margin: 1.5rem auto; padding: 0 1rem; }
.toolbar { display: flex; justify-content: space-between; align-items: center; }
table { width: 100%; border-collapse: collapse; background: #fff; }
th, td { text-align: left; padding: 0.5rem; border-bottom: 1px solid var(--border); }
.tag { display: inline-block; padding: 0.1rem 0.5rem; border-radius: 4px; color: #fff; background: var(--muted); font-size: 0.8rem; }
.btn { padding: 0.4rem 1rem; border: 1px solid var(--border); border-radius: 4px; background: #fff; cursor: pointer; text-decoration: none; color: inherit; }
.btn-primary { background: var(--primary); border-color: var(--primary); color: #fff; }
.btn-small { padding: 0.1rem 0.5rem; font-size: 0.8rem; }
.steps { display: flex; gap: 0.5rem; margin-bottom: 1rem; }
.step { flex: 1; padding: 0.5rem; border-bottom: 3px solid var(--border); color: var(--muted); text-decoration: none; }
.step.done { border-color: #95de64; color: inherit; }
.step.current { border-color: var(--primary); color: inherit; font-weight: 600; }
.step-body { background: #fff; padding: 1rem 1.5rem; border: 1px solid var(--border); border-radius: 6px; }
.field { display: flex; flex-direction: column; margin-bottom: 0.75rem; }
.field span { font-size: 0.85rem; color: var(--muted); margin-bottom: 0.25rem; }
.field input, .field select { padding: 0.4rem; border: 1px solid var(--border); border-radius: 4px; }
.actions { display: flex; justify-content: flex-end; gap: 0.5rem; margin-top: 1rem; }
.notice { padding: 0.75rem 1rem; border-radius: 4px; margin-bottom: 1rem; }
.notice-error { background: #fff1f0; border: 1px solid #ffa39e; }
.notice-success { background: #f6ffed; border: 1px solid #b7eb8f; }
.review-counts { display: flex; gap: 0.75rem; margin: 1rem 0; }
.count-tile { flex: 1; padding: 0.5rem; border: 1px solid var(--border); border-left-width: 4px; border-radius: 4px; }
.count-value { float: right; font-weight: 600; }
.task-list { list-style: none; padding: 0; }
.task-list li { display: flex; gap: 0.5rem; align-items: center; padding: 0.3rem 0; }
.task-row.saved td { color: var(--muted); }
.saved { color: var(--primary); font-size: 0.8rem; }
.empty { color: var(--muted); }
`

const planListJS = `
const events = new EventSource('/events');
events.onmessage = (e) => {
  const ev = JSON.parse(e.data);
  if (ev.type && ev.type.startsWith('plan_')) location.reload();
};
`

const wizardJS = `
const sid = document.body.dataset.sid;

async function call(method, url, body) {
  const res = await fetch(url, {
    method,
    headers: { 'Content-Type': 'application/json' },
    body: body === undefined ? undefined : JSON.stringify(body),
  });
  const data = await res.json().catch(() => ({}));
  return { ok: res.ok, status: res.status, data };
}

let busy = false;

function setBusy(on) {
  busy = on;
  document.querySelectorAll('.actions [data-action]').forEach((btn) => { btn.disabled = on; });
}

function showNotice(n) {
  const el = document.getElementById('notice');
  el.textContent = n.message || n.error || 'Something went wrong';
  el.className = 'notice notice-' + (n.kind || 'error');
  el.hidden = false;
}

function read(selector, attr) {
  const out = {};
  document.querySelectorAll(selector).forEach((el) => {
    const key = el.dataset[attr];
    if (el.dataset.kind === 'number') {
      if (el.value !== '') out[key] = Number(el.value);
    } else {
      out[key] = el.value;
    }
  });
  return out;
}

async function saveFields() {
  const fields = read('[data-field]', 'field');
  if (Object.keys(fields).length === 0) return true;
  const r = await call('PUT', '/api/wizard/' + sid + '/values', fields);
  // 409: another submit holds the form
  if (!r.ok && r.status !== 409) showNotice(r.data);
  return r.ok;
}

async function act(kind) {
  if (busy) return;
  setBusy(true);
  try {
    if (!(await saveFields())) return;
    const r = await call('POST', '/api/wizard/' + sid + '/' + kind);
    const out = r.data.outcome || {};
    if (out.ignored || r.status === 409) return;
    if (out.redirect) { location.href = out.redirect; return; }
    if (out.notice) { showNotice(out.notice); return; }
    if (!r.ok) { showNotice(r.data); return; }
    location.reload();
  } finally {
    setBusy(false);
  }
}

async function addTask() {
  const t = read('[data-task]', 'task');
  const category = t.category;
  delete t.category;
  const r = await call('POST', '/api/wizard/' + sid + '/tasks/' + category, t);
  if (!r.ok) { showNotice(r.data); return; }
  location.reload();
}

document.querySelectorAll('[data-action]').forEach((btn) => {
  btn.addEventListener('click', async () => {
    const a = btn.dataset.action;
    if (a === 'add-task') return addTask();
    if (busy) return;
    if (a === 'back') {
      await call('POST', '/api/wizard/' + sid + '/back');
      return location.reload();
    }
    return act(a);
  });
});

document.querySelectorAll('[data-goto]').forEach((link) => {
  link.addEventListener('click', async (e) => {
    e.preventDefault();
    await call('POST', '/api/wizard/' + sid + '/step/' + link.dataset.goto);
    location.reload();
  });
});

document.querySelectorAll('[data-remove]').forEach((btn) => {
  btn.addEventListener('click', async () => {
    const r = await call('DELETE', '/api/wizard/' + sid + '/tasks/' + btn.dataset.remove);
    if (!r.ok) { showNotice(r.data); return; }
    location.reload();
  });
});

const events = new EventSource('/events');
events.onmessage = (e) => {
  const ev = JSON.parse(e.data);
  if (ev.type === 'wizard_notice' && ev.sessionId === sid) showNotice(ev.data);
};
`
